package dedup

import (
	"testing"
	"time"
)

// setupTestGuard creates a guard with a controllable clock and no
// background compaction.
func setupTestGuard(t *testing.T, ttl time.Duration) (*Guard, *time.Time) {
	t.Helper()
	g := newGuard(ttl)
	now := time.Now()
	g.now = func() time.Time { return now }
	return g, &now
}

func TestSeen_UnknownIdentity(t *testing.T) {
	g, _ := setupTestGuard(t, time.Second)
	if g.Seen("file-1") {
		t.Error("expected unknown identity to be unseen")
	}
}

func TestSeen_WithinTTL(t *testing.T) {
	g, _ := setupTestGuard(t, 10*time.Second)

	if g.Seen("file-1") {
		t.Fatal("first lookup should miss")
	}
	g.MarkSeen("file-1")
	if !g.Seen("file-1") {
		t.Error("second lookup within TTL should hit")
	}
}

func TestSeen_ExpiresAfterTTL(t *testing.T) {
	g, now := setupTestGuard(t, 10*time.Second)

	g.MarkSeen("file-1")
	*now = now.Add(11 * time.Second)

	if g.Seen("file-1") {
		t.Error("lookup after TTL should miss")
	}
}

func TestSeen_HitDoesNotRefresh(t *testing.T) {
	g, now := setupTestGuard(t, 10*time.Second)

	g.MarkSeen("file-1")
	*now = now.Add(9 * time.Second)
	if !g.Seen("file-1") {
		t.Fatal("expected hit just inside TTL")
	}

	// The hit must not have bumped the timestamp.
	*now = now.Add(2 * time.Second)
	if g.Seen("file-1") {
		t.Error("entry should have expired relative to original mark")
	}
}

func TestForget_RemovesImmediately(t *testing.T) {
	g, _ := setupTestGuard(t, 10*time.Second)

	g.MarkSeen("file-1")
	g.Forget("file-1")
	if g.Seen("file-1") {
		t.Error("forgotten identity should be unseen")
	}
}

func TestCompact_DropsOnlyExpired(t *testing.T) {
	g, now := setupTestGuard(t, 10*time.Second)

	g.MarkSeen("old")
	*now = now.Add(11 * time.Second)
	g.MarkSeen("fresh")

	g.compact()

	if g.Count() != 1 {
		t.Fatalf("expected 1 entry after compaction, got %d", g.Count())
	}
	if !g.Seen("fresh") {
		t.Error("fresh entry should survive compaction")
	}
}

func TestDefaultTTL_Applied(t *testing.T) {
	g := newGuard(0)
	if g.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", g.ttl, DefaultTTL)
	}
}

func TestStop_EndsCompactionButKeepsLookups(t *testing.T) {
	g := NewGuard(10 * time.Second)

	g.MarkSeen("file-1")
	g.Stop()
	g.Stop() // second call must be a no-op

	if !g.Seen("file-1") {
		t.Error("lookups must keep working after Stop")
	}
	select {
	case <-g.stop:
	default:
		t.Error("stop channel should be closed")
	}
}

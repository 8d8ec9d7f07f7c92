package admission

import (
	"errors"
	"sync"
	"testing"
)

func TestTryAcquire_GrantsUpToLimit(t *testing.T) {
	c := NewController(4)

	for i := 0; i < 4; i++ {
		if _, err := c.TryAcquire("owner-1"); err != nil {
			t.Fatalf("acquire %d failed: %v", i+1, err)
		}
	}
	if got := c.InFlight("owner-1"); got != 4 {
		t.Errorf("in-flight = %d, want 4", got)
	}
}

func TestTryAcquire_RejectsWhenFull(t *testing.T) {
	c := NewController(2)

	for i := 0; i < 2; i++ {
		if _, err := c.TryAcquire("owner-1"); err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
	}

	_, err := c.TryAcquire("owner-1")
	if !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestTryAcquire_OwnersAreIndependent(t *testing.T) {
	c := NewController(1)

	if _, err := c.TryAcquire("owner-1"); err != nil {
		t.Fatalf("acquire owner-1 failed: %v", err)
	}
	if _, err := c.TryAcquire("owner-2"); err != nil {
		t.Errorf("owner-2 should not be limited by owner-1: %v", err)
	}
}

func TestRelease_FreesSlot(t *testing.T) {
	c := NewController(1)

	permit, err := c.TryAcquire("owner-1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if _, err := c.TryAcquire("owner-1"); !errors.Is(err, ErrLimitReached) {
		t.Fatal("expected second acquire to be rejected")
	}

	permit.Release()

	if _, err := c.TryAcquire("owner-1"); err != nil {
		t.Errorf("acquire after release failed: %v", err)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	c := NewController(1)

	permit, err := c.TryAcquire("owner-1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	permit.Release()
	permit.Release() // must not over-free

	if _, err := c.TryAcquire("owner-1"); err != nil {
		t.Fatalf("acquire after double release failed: %v", err)
	}
	if _, err := c.TryAcquire("owner-1"); !errors.Is(err, ErrLimitReached) {
		t.Error("double release must not mint an extra slot")
	}
}

func TestRelease_NilPermitSafe(t *testing.T) {
	var p *Permit
	p.Release()
}

func TestTryAcquire_ConcurrentNeverOverGrants(t *testing.T) {
	const limit = 4
	c := NewController(limit)

	var wg sync.WaitGroup
	granted := make(chan *Permit, limit+4)
	for i := 0; i < limit+4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if permit, err := c.TryAcquire("owner-1"); err == nil {
				granted <- permit
			}
		}()
	}
	wg.Wait()
	close(granted)

	count := 0
	for range granted {
		count++
	}
	if count != limit {
		t.Errorf("granted %d permits, want exactly %d", count, limit)
	}
}

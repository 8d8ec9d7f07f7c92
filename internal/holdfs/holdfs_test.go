package holdfs

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// setupTestStore creates a store backed by an in-memory filesystem with
// one source file ready to hold.
func setupTestStore(t *testing.T) (*Store, afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	src := filepath.Join("downloads", "incoming.mkv")
	if err := afero.WriteFile(fs, src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("failed to seed source file: %v", err)
	}
	return NewStoreFs(fs, "hold"), fs, src
}

func TestHold_MovesIntoBatchDir(t *testing.T) {
	store, fs, src := setupTestStore(t)

	held, err := store.Hold("user-1", "group-9", "Show S01E01.mkv", src)
	if err != nil {
		t.Fatalf("Hold failed: %v", err)
	}

	want := filepath.Join("hold", "user-1", "group-9", "Show S01E01.mkv")
	if held != want {
		t.Errorf("held path = %q, want %q", held, want)
	}

	data, err := afero.ReadFile(fs, held)
	if err != nil {
		t.Fatalf("held file unreadable: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("held content = %q, want original payload", data)
	}

	if exists, _ := afero.Exists(fs, src); exists {
		t.Error("source file should be gone after hold")
	}
}

func TestCleanupBatch_RemovesDirectory(t *testing.T) {
	store, fs, src := setupTestStore(t)

	held, err := store.Hold("user-1", "group-9", "a.mkv", src)
	if err != nil {
		t.Fatalf("Hold failed: %v", err)
	}

	if err := store.CleanupBatch("user-1", "group-9"); err != nil {
		t.Fatalf("CleanupBatch failed: %v", err)
	}
	if exists, _ := afero.Exists(fs, held); exists {
		t.Error("held file should be removed with its batch dir")
	}
}

func TestRemove_MissingFileIsNoError(t *testing.T) {
	store, _, _ := setupTestStore(t)
	if err := store.Remove(filepath.Join("hold", "nope.mkv")); err != nil {
		t.Errorf("Remove of missing file returned error: %v", err)
	}
}

func TestExists(t *testing.T) {
	store, _, src := setupTestStore(t)

	held, err := store.Hold("u", "g", "x.mkv", src)
	if err != nil {
		t.Fatalf("Hold failed: %v", err)
	}
	if !store.Exists(held) {
		t.Error("expected held file to exist")
	}
	if store.Exists(filepath.Join("hold", "missing")) {
		t.Error("expected missing file to not exist")
	}
}

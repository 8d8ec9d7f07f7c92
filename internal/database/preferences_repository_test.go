package database

import (
	"errors"
	"path/filepath"
	"testing"

	"renameflow/models"
)

// setupTestDB creates a new test database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_Success(t *testing.T) {
	db := setupTestDB(t)
	if db.Preferences == nil {
		t.Fatal("expected non-nil preferences repository")
	}
}

func TestNewDB_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()
}

func TestGet_MissingOwner(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Preferences.Get("nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsert_ThenGet(t *testing.T) {
	db := setupTestDB(t)

	prefs := &models.UserPreferences{
		OwnerID:        "user-1",
		FormatTemplate: "Show S{season}E{episode} [{quality}]",
		Caption:        "uploaded by renameflow",
		SendAs:         models.MediaKindVideo,
		MetaTitle:      "My Show",
		MetaVideo:      "My Show Video",
		MetaAudio:      "My Show Audio",
		MetaSubtitle:   "My Show Subs",
	}
	if err := db.Preferences.Upsert(prefs); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := db.Preferences.Get("user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FormatTemplate != prefs.FormatTemplate {
		t.Errorf("template = %q, want %q", got.FormatTemplate, prefs.FormatTemplate)
	}
	if got.SendAs != models.MediaKindVideo {
		t.Errorf("sendAs = %q, want video", got.SendAs)
	}
	if got.MetaVideo != "My Show Video" || got.MetaAudio != "My Show Audio" || got.MetaSubtitle != "My Show Subs" {
		t.Errorf("stream titles = %q/%q/%q", got.MetaVideo, got.MetaAudio, got.MetaSubtitle)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected non-zero UpdatedAt")
	}
}

func TestUpsert_ReplacesExisting(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Preferences.Upsert(&models.UserPreferences{
		OwnerID:        "user-1",
		FormatTemplate: "old",
	}); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if err := db.Preferences.Upsert(&models.UserPreferences{
		OwnerID:        "user-1",
		FormatTemplate: "new",
	}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := db.Preferences.Get("user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FormatTemplate != "new" {
		t.Errorf("template = %q, want new", got.FormatTemplate)
	}
}

func TestUpsert_RequiresOwnerID(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Preferences.Upsert(&models.UserPreferences{}); err == nil {
		t.Error("expected error for missing owner id")
	}
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Preferences.Upsert(&models.UserPreferences{
		OwnerID:        "user-1",
		FormatTemplate: "t",
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := db.Preferences.Delete("user-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := db.Preferences.Get("user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := db.Preferences.Delete("user-1"); err != nil {
		t.Errorf("second Delete returned error: %v", err)
	}
}

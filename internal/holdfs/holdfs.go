// Package holdfs owns the on-disk holding area where renamed files wait
// for their batch to finish arriving. Layout: hold/<owner>/<batch>/<name>.
package holdfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store moves pipeline artifacts into per-batch hold directories and
// cleans them up after delivery. The filesystem is abstracted so tests
// run against an in-memory fs.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore creates a store rooted at dir on the real filesystem.
func NewStore(dir string) *Store {
	return NewStoreFs(afero.NewOsFs(), dir)
}

// NewStoreFs creates a store on an explicit filesystem.
func NewStoreFs(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, root: dir}
}

// BatchDir returns the holding directory for one batch.
func (s *Store) BatchDir(ownerID, groupID string) string {
	return filepath.Join(s.root, ownerID, groupID)
}

// Hold moves src into the batch's holding directory under targetName,
// falling back to copy when rename crosses filesystems. Returns the held
// path.
func (s *Store) Hold(ownerID, groupID, targetName, src string) (string, error) {
	dir := s.BatchDir(ownerID, groupID)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create hold dir: %w", err)
	}

	dest := filepath.Join(dir, targetName)
	if err := s.fs.Rename(src, dest); err != nil {
		if copyErr := s.copyFile(src, dest); copyErr != nil {
			return "", fmt.Errorf("hold %s: %w", src, copyErr)
		}
		_ = s.fs.Remove(src)
	}
	return dest, nil
}

// Remove deletes a single held file if it still exists.
func (s *Store) Remove(path string) error {
	err := s.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CleanupBatch removes a batch's entire holding directory.
func (s *Store) CleanupBatch(ownerID, groupID string) error {
	return s.fs.RemoveAll(s.BatchDir(ownerID, groupID))
}

// Exists reports whether a held file is still present.
func (s *Store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

func (s *Store) copyFile(src, dest string) error {
	in, err := s.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := s.fs.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = s.fs.Remove(dest)
		return err
	}
	return out.Close()
}

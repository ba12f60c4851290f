// Package statestore owns the persisted authentication snapshot: a
// single storage-state file (cookies + local storage) written by the
// browser layer after a successful login or submission.
package statestore

import (
	"fmt"
	"os"
	"path/filepath"
)

// minSize guards against a truncated or near-empty snapshot being
// mistaken for a live session.
const minSize = 10

// Store reads and deletes the storage-state file at a fixed path. The
// file content itself is produced and consumed by Playwright; the store
// only manages its existence.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the configured snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a usable snapshot is present. Absence implies
// "not authenticated" without any browser check.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	return info.Size() > minSize
}

// EnsureDir creates the snapshot's parent directory so a save never
// fails on a missing path.
func (s *Store) EnsureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return nil
}

// Delete removes the snapshot. A missing file is not an error; after
// Delete the user is unauthenticated as far as the fast path goes.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

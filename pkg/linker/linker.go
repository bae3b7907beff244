// Package linker exposes the content-linking collaborator the writer
// calls after a committed write. Linking is at-least-once and
// idempotent; a failure after commit leaves durable archive state with
// only a stale link, which the next write repairs.
package linker

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Linker repoints the content link for an archive id at a path.
type Linker interface {
	Link(path string, archiveID int64) error
}

// Symlinker maintains one symlink per archive id under Dir.
type Symlinker struct {
	Dir string
}

// Link replaces Dir/<archiveID> with a symlink to path.
func (s Symlinker) Link(path string, archiveID int64) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create links directory: %w", err)
	}

	name := filepath.Join(s.Dir, strconv.FormatInt(archiveID, 10))
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale link: %w", err)
	}

	if err := os.Symlink(path, name); err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// Nop discards link requests. Useful when no link directory is
// configured and in tests.
type Nop struct{}

func (Nop) Link(string, int64) error { return nil }

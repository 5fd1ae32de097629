// Package installer performs the live-filesystem side effects of
// package removal. The package database calls into it and deletes its
// own rows only after a call here succeeds.
package installer

import (
	"fmt"
	"os"
)

// Remover removes files and directories from the live filesystem. It
// satisfies the pkgdb.Remover interface.
type Remover struct{}

// RemoveFile unlinks a non-directory path. A path that is already gone
// counts as removed.
func (Remover) RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// RemoveDirectory removes an empty directory. Callers remove deepest
// paths first; a non-empty directory is reported as an error for the
// caller to tolerate or propagate.
func (Remover) RemoveDirectory(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove directory %s: %w", path, err)
	}
	return nil
}

package pkgdb

import (
	"errors"
	"fmt"
)

var (
	// ErrPackageExists is returned by AddPackage when the package is
	// already recorded.
	ErrPackageExists = errors.New("package already in database")

	// ErrPackageNotFound is returned when an operation names a package
	// the database does not record.
	ErrPackageNotFound = errors.New("package not in database")

	// ErrVersionMismatch is returned by UpdatePackage when the recorded
	// version differs from the version the caller claims to upgrade from.
	ErrVersionMismatch = errors.New("recorded package version does not match")

	// ErrPackageHasContents is returned by RemovePackage while the
	// package still owns file or script rows. Contents must be removed
	// first so the database never loses track of on-disk state.
	ErrPackageHasContents = errors.New("package still owns files or scripts")

	// ErrFileNotFound is returned by FindFile when no package owns the
	// given path.
	ErrFileNotFound = errors.New("path not in database")
)

// FilesystemError reports a failed removal of a live path during package
// content removal. The database row for the path is retained.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("cannot remove %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

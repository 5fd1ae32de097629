// Package space provides the free-space admission check consulted
// before committing to a large download.
package space

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Checker reports whether required bytes can be committed under the
// filesystem holding path. The resolver and fetcher consume this as a
// plain predicate; richer pool-aware policies plug in behind the same
// signature.
type Checker func(path string, required int64) bool

// CanFit reports whether the filesystem holding path has at least
// required bytes free. The path itself need not exist yet; its parent
// directory is consulted in that case.
func CanFit(path string, required int64) (bool, error) {
	var st unix.Statfs_t
	err := unix.Statfs(path, &st)
	if err != nil {
		err = unix.Statfs(filepath.Dir(path), &st)
	}
	if err != nil {
		return false, fmt.Errorf("failed to statfs %s: %w", path, err)
	}

	free := int64(st.Bavail) * int64(st.Bsize)
	return free >= required, nil
}

// Default is the Checker used when the caller supplies none: errors
// from statfs admit the download rather than blocking an update on a
// broken introspection path.
func Default(path string, required int64) bool {
	ok, err := CanFit(path, required)
	if err != nil {
		return true
	}
	return ok
}

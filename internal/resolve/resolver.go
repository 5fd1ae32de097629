// Package resolve chooses and materializes a verified package artifact,
// preferring local cache copies and small delta payloads over full
// downloads.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridian-os/updatectl/internal/checksum"
	"github.com/meridian-os/updatectl/internal/fetch"
	"github.com/meridian-os/updatectl/internal/manifest"
	"github.com/meridian-os/updatectl/internal/pkgdb"
	"github.com/meridian-os/updatectl/internal/space"
)

// ErrPackageNotFound is returned when every candidate artifact was
// exhausted without finding the package anywhere.
var ErrPackageNotFound = errors.New("package artifact not found")

// ChecksumMismatchError distinguishes "found wrong content" from
// "found nothing": at least one candidate existed but failed its
// integrity check.
type ChecksumMismatchError struct {
	Filename string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("%s has invalid checksum", e.Filename)
}

// PayloadFilter restricts which artifact kinds are considered.
type PayloadFilter int

const (
	// Either considers both full and delta payloads.
	Either PayloadFilter = iota
	// FullOnly ignores delta payloads.
	FullOnly
	// DeltaOnly ignores full payloads.
	DeltaOnly
)

// Options controls one resolution attempt.
type Options struct {
	// UpgradeFrom overrides the installed-version lookup in the package
	// database when non-empty.
	UpgradeFrom string

	// SaveDir, when set, keeps downloaded artifacts on disk (resumable)
	// instead of streaming into an anonymous temporary file.
	SaveDir string

	Filter   PayloadFilter
	Progress fetch.ProgressFunc

	// IgnoreSpace waives the free-space admission check.
	IgnoreSpace bool
}

// Resolver locates package artifacts across the local cache directory
// and the configured update servers.
type Resolver struct {
	DB       *pkgdb.DB // installed-version lookups; may be nil
	Fetcher  *fetch.Fetcher
	CacheDir string   // local package directory; "" disables the local pass
	Servers  []string // server base URLs in priority order
}

// candidate is one concrete artifact the resolver may try. Candidates
// live for a single resolution attempt.
type candidate struct {
	filename       string
	checksum       string
	size           int64
	delta          bool
	requiresReboot bool
}

// Find materializes a verified artifact for the package, returning an
// open stream positioned at 0. The search tries local candidates in
// full-then-delta order, then network candidates in delta-then-full
// order so the smaller payload wins when both are reachable.
func (r *Resolver) Find(pkg *manifest.Package, opts Options) (*os.File, error) {
	candidates := r.buildCandidates(pkg, opts)

	var mismatch *ChecksumMismatchError

	if r.CacheDir != "" {
		for _, c := range candidates {
			file, err := r.tryLocal(c)
			if err != nil {
				var cerr *ChecksumMismatchError
				if errors.As(err, &cerr) {
					mismatch = cerr
				}
				continue
			}
			return file, nil
		}
	}

	for i := len(candidates) - 1; i >= 0; i-- {
		file, err := r.tryNetwork(candidates[i], opts)
		if err != nil {
			var cerr *ChecksumMismatchError
			if errors.As(err, &cerr) {
				mismatch = cerr
			}
			continue
		}
		return file, nil
	}

	if mismatch != nil {
		return nil, mismatch
	}
	return nil, fmt.Errorf("%s: %w", pkg.Name, ErrPackageNotFound)
}

// buildCandidates produces the fixed-priority candidate list: the full
// payload first, then a delta payload when the installed version both
// exists and has a published upgrade path to the target version.
func (r *Resolver) buildCandidates(pkg *manifest.Package, opts Options) []candidate {
	var candidates []candidate

	if opts.Filter != DeltaOnly {
		candidates = append(candidates, candidate{
			filename: pkg.FileName(),
			checksum: pkg.Checksum,
			size:     pkg.Size,
		})
	}

	if opts.Filter != FullOnly {
		installed := opts.UpgradeFrom
		if installed == "" && r.DB != nil {
			if cur, err := r.DB.FindPackage(pkg.Name); err == nil {
				installed = cur.Version
			}
		}
		if installed != "" && installed != pkg.Version {
			if up := pkg.Upgrade(installed); up != nil {
				candidates = append(candidates, candidate{
					filename:       pkg.DeltaFileName(installed),
					checksum:       up.Checksum,
					size:           up.Size,
					delta:          true,
					requiresReboot: up.RequiresReboot,
				})
			}
		}
	}

	return candidates
}

// tryLocal opens a candidate from the cache directory and verifies it.
// A candidate without a declared checksum is accepted unconditionally.
func (r *Resolver) tryLocal(c candidate) (*os.File, error) {
	path := filepath.Join(r.CacheDir, c.filename)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no local copy of %s: %w", c.filename, err)
	}

	if c.checksum == "" {
		return file, nil
	}
	sum, err := checksum.File(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	if sum != c.checksum {
		file.Close()
		return nil, &ChecksumMismatchError{Filename: c.filename}
	}
	return file, nil
}

// tryNetwork downloads a candidate from the configured servers and
// verifies it. A failed verification deletes the downloaded file so a
// later resume cannot pick up poisoned bytes.
func (r *Resolver) tryNetwork(c candidate, opts Options) (*os.File, error) {
	sources := make([]string, 0, len(r.Servers))
	for _, server := range r.Servers {
		sources = append(sources, server+"/Packages/"+c.filename)
	}

	fetchOpts := fetch.Options{
		Resume:   true,
		Reason:   "DownloadPackageFile",
		Progress: opts.Progress,
	}
	if opts.SaveDir != "" {
		fetchOpts.Destination = filepath.Join(opts.SaveDir, c.filename)
	}
	if !opts.IgnoreSpace {
		fetchOpts.SpaceCheck = space.Default
	}

	file, err := r.Fetcher.Fetch(sources, fetchOpts)
	if err != nil {
		return nil, err
	}

	if c.checksum == "" {
		return file, nil
	}
	sum, err := checksum.File(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to checksum %s: %w", c.filename, err)
	}
	if sum != c.checksum {
		file.Close()
		if fetchOpts.Destination != "" {
			os.Remove(fetchOpts.Destination)
		}
		return nil, &ChecksumMismatchError{Filename: c.filename}
	}
	return file, nil
}

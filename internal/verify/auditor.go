// Package verify audits the live filesystem against the package
// database's file records. Discrepancies are data, not errors: the
// audit itself only fails when the records cannot be read.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/meridian-os/updatectl/internal/checksum"
	"github.com/meridian-os/updatectl/internal/pkgdb"
)

// DefaultSkipPaths lists path prefixes the audit never inspects:
// runtime-mutated system state that is expected to diverge from the
// recorded manifest.
var DefaultSkipPaths = []string{
	"/var/",
	"/etc",
	"/dev",
	"/proc",
	"/boot/zfs/zpool.cache",
	"/usr/share/man",
}

// DefaultCacheArtifact reports whether a path is a compiled interpreter
// cache artifact, which is regenerated on the host with different
// permissions and content than the package shipped.
func DefaultCacheArtifact(path string) bool {
	return strings.HasSuffix(path, ".pyc")
}

// Category partitions audit errors. A single discrepancy is never
// counted in more than one category.
type Category string

const (
	CategoryChecksum  Category = "checksum"
	CategoryWrongType Category = "wrongtype"
	CategoryNotFound  Category = "notfound"
)

// Problem describes one discrepancy between a recorded entry and the
// live filesystem.
type Problem struct {
	Path   string
	Detail string
	Entry  *pkgdb.FileEntry
}

// Report is the complete audit output.
type Report struct {
	Errors   map[Category][]Problem
	Warnings []Problem
}

// HasErrors reports whether any category holds at least one error.
func (r *Report) HasErrors() bool {
	for _, probs := range r.Errors {
		if len(probs) > 0 {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any non-fatal discrepancy was found.
func (r *Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r *Report) addError(cat Category, p Problem) {
	r.Errors[cat] = append(r.Errors[cat], p)
}

// ProgressFunc is called once per recorded entry, before it is checked.
type ProgressFunc func(done, total int, path string)

// Auditor walks the recorded file manifest and compares it against the
// live filesystem.
type Auditor struct {
	DB   *pkgdb.DB
	Root string // live filesystem root; "" audits in place

	// SkipPaths holds path prefixes excluded from auditing.
	SkipPaths []string

	// CacheArtifact identifies regenerated compiled-cache files, whose
	// mode and content mismatches are expected and suppressed.
	CacheArtifact func(path string) bool
}

// New returns an Auditor with the default skip list and cache-artifact
// predicate.
func New(db *pkgdb.DB) *Auditor {
	return &Auditor{
		DB:            db,
		SkipPaths:     DefaultSkipPaths,
		CacheArtifact: DefaultCacheArtifact,
	}
}

// Run audits every recorded file entry and returns the categorized
// report.
func (a *Auditor) Run(progress ProgressFunc) (*Report, error) {
	entries, err := a.DB.FindFilesForPackage("")
	if err != nil {
		return nil, fmt.Errorf("failed to read file records: %w", err)
	}

	report := &Report{Errors: map[Category][]Problem{
		CategoryChecksum:  nil,
		CategoryWrongType: nil,
		CategoryNotFound:  nil,
	}}

	for i, entry := range entries {
		if progress != nil {
			progress(i+1, len(entries), entry.Path)
		}
		if a.skip(entry.Path) {
			continue
		}
		a.check(entry, report)
	}
	return report, nil
}

func (a *Auditor) skip(path string) bool {
	for _, prefix := range a.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (a *Auditor) livePath(path string) string {
	if a.Root == "" {
		return path
	}
	return filepath.Join(a.Root, path)
}

// check compares one recorded entry against the live filesystem and
// appends whatever it finds to the report.
func (a *Auditor) check(entry *pkgdb.FileEntry, report *Report) {
	live := a.livePath(entry.Path)

	// Lstat so a broken symlink still counts as present; its problems
	// surface as type or checksum discrepancies instead.
	fi, err := os.Lstat(live)
	if err != nil {
		report.addError(CategoryNotFound, Problem{
			Path:   entry.Path,
			Detail: "path does not exist",
			Entry:  entry,
		})
		return
	}

	st := fi.Sys().(*syscall.Stat_t)
	liveKind := kindFromMode(uint32(st.Mode))
	livePerm := int(st.Mode & 07777)

	if liveKind != entry.Kind {
		report.addError(CategoryWrongType, Problem{
			Path:   entry.Path,
			Detail: fmt.Sprintf("expected %s, got %s", entry.Kind, liveKind),
			Entry:  entry,
		})
	}

	// Mode/ownership drift is a warning, not an error, and is expected
	// outright for regenerated cache artifacts.
	if !a.CacheArtifact(entry.Path) {
		var drift []string
		if livePerm != entry.Mode {
			drift = append(drift, fmt.Sprintf("expected mode %o, got %o", entry.Mode, livePerm))
		}
		if int(st.Uid) != entry.UID {
			drift = append(drift, fmt.Sprintf("expected uid %d, got %d", entry.UID, st.Uid))
		}
		if int(st.Gid) != entry.GID {
			drift = append(drift, fmt.Sprintf("expected gid %d, got %d", entry.GID, st.Gid))
		}
		if len(drift) > 0 {
			report.Warnings = append(report.Warnings, Problem{
				Path:   entry.Path,
				Detail: strings.Join(drift, "; "),
				Entry:  entry,
			})
		}
	}

	subject, ok := a.checksumSubject(entry, live)
	if !ok || !entry.HasChecksum() {
		return
	}
	if checksum.Bytes(subject) != entry.Checksum {
		report.addError(CategoryChecksum, Problem{
			Path:   entry.Path,
			Detail: "checksum does not match",
			Entry:  entry,
		})
	}
}

// checksumSubject produces the bytes whose digest the database records:
// the link target for symlinks (leading slash stripped) and the full
// content for regular files. Directories carry no checksum; cache
// artifacts are skipped because the host rewrites them.
func (a *Auditor) checksumSubject(entry *pkgdb.FileEntry, live string) ([]byte, bool) {
	switch entry.Kind {
	case pkgdb.KindDir:
		return nil, false
	case pkgdb.KindSymlink:
		target, err := os.Readlink(live)
		if err != nil {
			return nil, false
		}
		return []byte(strings.TrimPrefix(target, "/")), true
	case pkgdb.KindFile:
		if a.CacheArtifact(entry.Path) {
			return nil, false
		}
		content, err := os.ReadFile(live)
		if err != nil {
			return nil, false
		}
		return content, true
	default:
		// Devices, pipes, and sockets have no content to digest; an
		// entry recorded with a checksum compares against empty bytes.
		return nil, true
	}
}

// kindFromMode classifies a raw stat mode into the database's closed
// kind enumeration.
func kindFromMode(mode uint32) pkgdb.FileKind {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return pkgdb.KindFile
	case unix.S_IFDIR:
		return pkgdb.KindDir
	case unix.S_IFLNK:
		return pkgdb.KindSymlink
	case unix.S_IFCHR:
		return pkgdb.KindCharDevice
	case unix.S_IFBLK:
		return pkgdb.KindBlockDevice
	case unix.S_IFIFO:
		return pkgdb.KindPipe
	case unix.S_IFSOCK:
		return pkgdb.KindSocket
	}
	return pkgdb.KindUnknown
}

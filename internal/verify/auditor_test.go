package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meridian-os/updatectl/internal/checksum"
	"github.com/meridian-os/updatectl/internal/pkgdb"
)

// newAuditFixture builds a throwaway root, records entries for the
// named package, and returns an auditor pointed at the root.
func newAuditFixture(t *testing.T, entries []*pkgdb.FileEntry) *Auditor {
	t.Helper()
	db, err := pkgdb.New(":memory:")
	if err != nil {
		t.Fatalf("pkgdb.New() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.AddPackage("base-os", "1.0", nil); err != nil {
		t.Fatalf("AddPackage() failed: %v", err)
	}
	if err := db.AddFilesBulk(entries); err != nil {
		t.Fatalf("AddFilesBulk() failed: %v", err)
	}

	a := New(db)
	a.Root = t.TempDir()
	return a
}

func writeLive(t *testing.T, a *Auditor, path, content string, mode os.FileMode) {
	t.Helper()
	full := filepath.Join(a.Root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), mode); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	// WriteFile's mode is masked by the umask; force it.
	if err := os.Chmod(full, mode); err != nil {
		t.Fatalf("Chmod() failed: %v", err)
	}
}

func fileEntry(path, content string, mode int) *pkgdb.FileEntry {
	return &pkgdb.FileEntry{
		Path:     path,
		Package:  "base-os",
		Kind:     pkgdb.KindFile,
		Checksum: checksum.Bytes([]byte(content)),
		UID:      os.Getuid(),
		GID:      os.Getgid(),
		Mode:     mode,
	}
}

func errorCount(r *Report) int {
	n := 0
	for _, probs := range r.Errors {
		n += len(probs)
	}
	return n
}

func TestRun_CleanSystem(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		fileEntry("/usr/bin/tool", "tool content", 0755),
	})
	writeLive(t, a, "/usr/bin/tool", "tool content", 0755)

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.HasErrors() || report.HasWarnings() {
		t.Errorf("clean system reported errors %v warnings %v", report.Errors, report.Warnings)
	}
}

func TestRun_ModeDriftIsWarningOnly(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		fileEntry("/usr/bin/tool", "tool content", 0644),
	})
	// Same content, tighter permissions than recorded.
	writeLive(t, a, "/usr/bin/tool", "tool content", 0600)

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if errorCount(report) != 0 {
		t.Errorf("mode drift produced errors: %v", report.Errors)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("got %d warnings; want exactly 1", len(report.Warnings))
	}
}

func TestRun_ChangedContent(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		fileEntry("/usr/bin/tool", "shipped content", 0755),
	})
	writeLive(t, a, "/usr/bin/tool", "tampered content", 0755)

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := len(report.Errors[CategoryChecksum]); got != 1 {
		t.Errorf("got %d checksum errors; want 1", got)
	}
	if errorCount(report) != 1 {
		t.Errorf("discrepancy counted in more than one category: %v", report.Errors)
	}
}

func TestRun_MissingPath(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		fileEntry("/usr/bin/gone", "content", 0755),
	})

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := len(report.Errors[CategoryNotFound]); got != 1 {
		t.Errorf("got %d notfound errors; want 1", got)
	}
}

func TestRun_WrongType(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		{Path: "/usr/lib/modules", Package: "base-os", Kind: pkgdb.KindDir,
			UID: os.Getuid(), GID: os.Getgid(), Mode: 0755},
	})
	// A regular file where a directory was recorded.
	writeLive(t, a, "/usr/lib/modules", "not a dir", 0755)

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := len(report.Errors[CategoryWrongType]); got != 1 {
		t.Errorf("got %d wrongtype errors; want 1", got)
	}
}

func TestRun_SkipPaths(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		fileEntry("/var/db/cache", "anything", 0644),
		fileEntry("/etc/rc.conf", "anything", 0644),
	})
	// Neither path exists on disk; the skip list hides both.

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.HasErrors() {
		t.Errorf("skip-listed paths were audited: %v", report.Errors)
	}
}

func TestRun_SymlinkTarget(t *testing.T) {
	entry := &pkgdb.FileEntry{
		Path:    "/usr/lib/libx.so",
		Package: "base-os",
		Kind:    pkgdb.KindSymlink,
		// Targets are recorded without their leading slash.
		Checksum: checksum.Bytes([]byte("usr/lib/libx.so.1")),
		UID:      os.Getuid(),
		GID:      os.Getgid(),
		Mode:     0777,
	}
	a := newAuditFixture(t, []*pkgdb.FileEntry{entry})

	full := filepath.Join(a.Root, entry.Path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.Symlink("/usr/lib/libx.so.1", full); err != nil {
		t.Fatalf("Symlink() failed: %v", err)
	}

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := len(report.Errors[CategoryChecksum]); got != 0 {
		t.Errorf("symlink target digest mismatched: %v", report.Errors[CategoryChecksum])
	}
}

func TestRun_CacheArtifactSuppressed(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		fileEntry("/usr/lib/python/mod.pyc", "shipped bytecode", 0644),
	})
	// Regenerated on the host with different content and mode.
	writeLive(t, a, "/usr/lib/python/mod.pyc", "host bytecode", 0600)

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.HasErrors() || report.HasWarnings() {
		t.Errorf("cache artifact drift was not suppressed: errors %v warnings %v",
			report.Errors, report.Warnings)
	}
}

func TestRun_NoChecksumRecorded(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		{Path: "/usr/bin/tool", Package: "base-os", Kind: pkgdb.KindFile,
			Checksum: pkgdb.NoChecksum, UID: os.Getuid(), GID: os.Getgid(), Mode: 0755},
	})
	writeLive(t, a, "/usr/bin/tool", "any content at all", 0755)

	report, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := len(report.Errors[CategoryChecksum]); got != 0 {
		t.Errorf("entry without a recorded checksum was digested: %v", report.Errors[CategoryChecksum])
	}
}

func TestRun_Progress(t *testing.T) {
	a := newAuditFixture(t, []*pkgdb.FileEntry{
		fileEntry("/usr/bin/one", "one", 0755),
		fileEntry("/var/db/skipped", "two", 0644),
	})
	writeLive(t, a, "/usr/bin/one", "one", 0755)

	var seen []string
	report, err := a.Run(func(done, total int, path string) {
		if total != 2 {
			t.Errorf("progress total = %d; want 2", total)
		}
		seen = append(seen, path)
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.HasErrors() {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
	// Progress covers every recorded entry, skip-listed ones included.
	if len(seen) != 2 {
		t.Errorf("progress called for %d entries; want 2", len(seen))
	}
}

package installer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	var r Remover
	if err := r.RemoveFile(path); err != nil {
		t.Fatalf("RemoveFile() failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still present after RemoveFile()")
	}

	// Already gone is not an error.
	if err := r.RemoveFile(path); err != nil {
		t.Errorf("RemoveFile() on a missing path failed: %v", err)
	}
}

func TestRemoveDirectory(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0755); err != nil {
		t.Fatalf("Mkdir() failed: %v", err)
	}

	var r Remover
	if err := r.RemoveDirectory(empty); err != nil {
		t.Fatalf("RemoveDirectory() failed: %v", err)
	}

	// A populated directory is the caller's problem to tolerate.
	full := filepath.Join(dir, "full")
	if err := os.MkdirAll(filepath.Join(full, "child"), 0755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := r.RemoveDirectory(full); err == nil {
		t.Error("RemoveDirectory() succeeded on a non-empty directory")
	}
}

package space

import (
	"math"
	"path/filepath"
	"testing"
)

func TestCanFit(t *testing.T) {
	dir := t.TempDir()

	ok, err := CanFit(dir, 1)
	if err != nil {
		t.Fatalf("CanFit() failed: %v", err)
	}
	if !ok {
		t.Error("CanFit(1 byte) = false on a writable temp dir")
	}

	ok, err = CanFit(dir, math.MaxInt64)
	if err != nil {
		t.Fatalf("CanFit() failed: %v", err)
	}
	if ok {
		t.Error("CanFit(MaxInt64) = true; no filesystem is that large")
	}
}

func TestCanFit_MissingPathUsesParent(t *testing.T) {
	dir := t.TempDir()

	ok, err := CanFit(filepath.Join(dir, "not-created-yet.tgz"), 1)
	if err != nil {
		t.Fatalf("CanFit() on a missing path failed: %v", err)
	}
	if !ok {
		t.Error("CanFit() = false for a missing file in a writable dir")
	}
}

func TestDefault_AdmitsOnError(t *testing.T) {
	if !Default("/no/such/dir/at/all/file.tgz", 1) {
		t.Error("Default() must admit when the filesystem cannot be inspected")
	}
}

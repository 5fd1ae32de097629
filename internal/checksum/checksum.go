// Package checksum computes the SHA-256 digests used to validate
// package artifacts and recorded file contents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// File computes the SHA-256 digest of an open stream. The stream is
// read from the beginning and left positioned at 0 afterwards, so the
// caller can hand it on without re-opening.
func File(f io.ReadSeeker) (string, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind stream: %w", err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read stream: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes computes the SHA-256 digest of a byte slice.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

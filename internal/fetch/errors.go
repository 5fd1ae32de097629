package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when every source reported the requested
	// file absent (HTTP 404).
	ErrNotFound = errors.New("remote file not found")

	// ErrInsufficientSpace is returned when the free-space admission
	// check rejects the download before streaming begins.
	ErrInsufficientSpace = errors.New("insufficient space for download")
)

// ServerError reports a non-2xx HTTP response other than 404 and 416.
type ServerError struct {
	URL        string
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("unable to load %s: server returned %d", e.URL, e.StatusCode)
}

// ConnectionError reports a transport-level failure reaching a source.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("unable to connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

package docstore

import "errors"

var (
	// ErrNotFound is returned by Get when no document exists at the path.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable marks network, timeout and server selection failures.
	ErrUnavailable = errors.New("document store unavailable")

	// ErrInvalidPath is returned for malformed paths and ids.
	ErrInvalidPath = errors.New("invalid document path")
)

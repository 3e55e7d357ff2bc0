package pathutil

import "errors"

var (
	// ErrEmptyPath is returned when an empty path is supplied.
	ErrEmptyPath = errors.New("path is empty")
	// ErrNullBytes is returned when a path contains null bytes.
	ErrNullBytes = errors.New("path contains null bytes")
)

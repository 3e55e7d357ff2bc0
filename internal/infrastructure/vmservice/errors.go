package vmservice

import (
	"errors"
	"fmt"
)

// ErrNoServiceURI indicates the child process exited before ever
// announcing its VM service URI.
var ErrNoServiceURI = errors.New("process exited before reporting a vm service uri")

// ParseError indicates a startup line that carried the service marker but
// did not contain a usable URI.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed vm service line %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CollectError indicates the coverage collection call failed or timed out.
type CollectError struct {
	Timeout bool
	Err     error
}

func (e *CollectError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("tests timed out: %v", e.Err)
	}
	return fmt.Sprintf("coverage collection failed: %v", e.Err)
}

func (e *CollectError) Unwrap() error { return e.Err }

// ExitError indicates the test process completed collection but exited
// with a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("tests failed with exit code %d", e.Code)
}

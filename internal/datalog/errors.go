package datalog

import "errors"

// Domain-specific errors for the acquisition log.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrOpenFailed is returned when the log directory or file cannot be created.
	ErrOpenFailed = errors.New("datalog: open failed")

	// ErrNotOpen is returned when logging without an open file.
	ErrNotOpen = errors.New("datalog: no open file")

	// ErrWriteFailed is returned when appending a line fails.
	ErrWriteFailed = errors.New("datalog: write failed")
)

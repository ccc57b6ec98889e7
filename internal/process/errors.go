package process

import "errors"

// Domain-specific errors for process supervision.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyRunning is returned when starting a process that is
	// already starting or running.
	ErrAlreadyRunning = errors.New("process: already running")

	// ErrStartFailed is returned when the process cannot be launched.
	ErrStartFailed = errors.New("process: start failed")

	// ErrUnexpectedExit is recorded when the process exits cleanly
	// without a stop having been requested.
	ErrUnexpectedExit = errors.New("process: exited unexpectedly")
)

package learning

import "errors"

// Domain-specific errors for learning sessions.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyRunning is returned when starting while a session is active.
	ErrAlreadyRunning = errors.New("learning: session already running")

	// ErrNotRunning is returned when stopping without an active session.
	ErrNotRunning = errors.New("learning: no session running")

	// ErrInvalidMode is returned for a mode other than train or infer.
	ErrInvalidMode = errors.New("learning: invalid mode")
)

package command

import "errors"

// Domain-specific errors for the learner command channel.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnectFailed is returned when the one-shot dial fails.
	ErrConnectFailed = errors.New("command: connect failed")

	// ErrNotConnected is returned when sending without a connection.
	ErrNotConnected = errors.New("command: not connected")

	// ErrSendFailed is returned when writing a command fails.
	ErrSendFailed = errors.New("command: send failed")
)

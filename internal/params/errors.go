package params

import "errors"

// Domain-specific errors for the parameter store.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoParameters is returned when constructing a store with no names.
	ErrNoParameters = errors.New("params: parameter set cannot be empty")

	// ErrInvalidParameter is returned for empty or duplicate names at construction.
	ErrInvalidParameter = errors.New("params: invalid parameter name")

	// ErrUnknownParameter is returned when reading a name outside the declared set.
	ErrUnknownParameter = errors.New("params: unknown parameter")
)

package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotFunction is returned when calling a global that is not a function.
	ErrNotFunction = errors.New("global is not a function")

	// ErrInstructionLimit is returned when the instruction limit is exceeded.
	ErrInstructionLimit = errors.New("lua instruction limit exceeded")
)

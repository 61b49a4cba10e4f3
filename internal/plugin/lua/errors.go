package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when execution times out.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNotFunction is returned when calling a global that is not a function.
	ErrNotFunction = errors.New("not a lua function")

	// ErrReentrantCall is returned when a script action triggers another
	// script action, for example through kb.tap("CUSTOM(0)").
	ErrReentrantCall = errors.New("lua call already in progress")
)

package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrInvalidValue indicates a value of the right type but wrong form.
	ErrInvalidValue = errors.New("invalid value")

	// ErrSchemaVersion indicates a schema_version this build cannot read.
	ErrSchemaVersion = errors.New("unsupported schema version")

	// ErrUnknownName indicates a reference to an undeclared layer, tap
	// dance or custom keycode.
	ErrUnknownName = errors.New("unknown name")

	// ErrDuplicateName indicates two declarations with the same name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrPosition indicates a key position outside the matrix.
	ErrPosition = errors.New("position outside matrix")
)

// ValidationError describes a problem with one field of a keymap file.
type ValidationError struct {
	// Path is the file the error was found in.
	Path string

	// Field is a dotted path to the offending value, e.g. "layers[1].keys[0][3]".
	Field string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every problem found in one file.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%v (and %d more)", e[0], len(e)-1)
}

// Unwrap returns the individual errors.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, v := range e {
		errs[i] = v
	}
	return errs
}

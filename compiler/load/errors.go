package load

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for symbol-table loading.
var (
	// ErrMultipleInjectConstructors indicates more than one annotated
	// constructor for a single class.
	ErrMultipleInjectConstructors = errors.New("weld: multiple injected constructors")

	// ErrParseFailed indicates an unparsable source file.
	ErrParseFailed = errors.New("weld: source parse failed")
)

// MultipleInjectConstructorsError reports a class with more than one
// inject-style or assisted-inject-style constructor.
type MultipleInjectConstructorsError struct {
	Class        string
	Constructors []string
}

// Error implements the error interface.
func (e *MultipleInjectConstructorsError) Error() string {
	return fmt.Sprintf("weld: class %s declares multiple injected constructors: %s",
		e.Class, strings.Join(e.Constructors, ", "))
}

// Is reports whether the target matches the sentinel error for MultipleInjectConstructorsError.
func (e *MultipleInjectConstructorsError) Is(target error) bool {
	return target == ErrMultipleInjectConstructors
}

// NewMultipleInjectConstructorsError creates a new MultipleInjectConstructorsError.
func NewMultipleInjectConstructorsError(class string, constructors []string) *MultipleInjectConstructorsError {
	return &MultipleInjectConstructorsError{Class: class, Constructors: constructors}
}

// ParseError reports a source file that could not be loaded.
type ParseError struct {
	File  string
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("weld: parsing %s: %v", e.File, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed
}

// IsMultipleInjectConstructors reports whether the error is a MultipleInjectConstructorsError.
func IsMultipleInjectConstructors(err error) bool {
	var e *MultipleInjectConstructorsError
	return errors.As(err, &e)
}

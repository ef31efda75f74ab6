package annotation

import (
	"errors"
	"fmt"
)

// Sentinel errors for directive processing.
var (
	// ErrMalformedUsage indicates a directive argument that does not match
	// the argument schema of its kind.
	ErrMalformedUsage = errors.New("weld: malformed directive usage")

	// ErrUnsupportedKind indicates a directive name with no known schema.
	ErrUnsupportedKind = errors.New("weld: unsupported directive")
)

// MalformedUsageError reports a directive argument mismatch.
type MalformedUsageError struct {
	Kind    Kind
	Arg     string
	Element string // offending declaration, if known
	Message string
}

// Error implements the error interface.
func (e *MalformedUsageError) Error() string {
	msg := fmt.Sprintf("weld: malformed //weld:%s usage", e.Kind)
	if e.Element != "" {
		msg += " on " + e.Element
	}
	if e.Arg != "" {
		msg += fmt.Sprintf(" (argument %q)", e.Arg)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether the target matches the sentinel error for MalformedUsageError.
func (e *MalformedUsageError) Is(target error) bool {
	return target == ErrMalformedUsage
}

// NewMalformedUsageError creates a new MalformedUsageError.
func NewMalformedUsageError(kind Kind, arg, message string) *MalformedUsageError {
	return &MalformedUsageError{Kind: kind, Arg: arg, Message: message}
}

// WithElement returns a copy of the error tied to the offending declaration.
func (e *MalformedUsageError) WithElement(element string) *MalformedUsageError {
	cp := *e
	cp.Element = element
	return &cp
}

// UnsupportedKindError reports a directive name that no query function
// has a schema for.
type UnsupportedKindError struct {
	Name string
}

// Error implements the error interface.
func (e *UnsupportedKindError) Error() string {
	if e.Name == "" {
		return "weld: missing directive name"
	}
	return fmt.Sprintf("weld: unsupported directive %q", e.Name)
}

// Is reports whether the target matches the sentinel error for UnsupportedKindError.
func (e *UnsupportedKindError) Is(target error) bool {
	return target == ErrUnsupportedKind
}

// NewUnsupportedKindError creates a new UnsupportedKindError.
func NewUnsupportedKindError(name string) *UnsupportedKindError {
	return &UnsupportedKindError{Name: name}
}

// IsMalformedUsage reports whether the error is a MalformedUsageError.
func IsMalformedUsage(err error) bool {
	var e *MalformedUsageError
	return errors.As(err, &e)
}

// IsUnsupportedKind reports whether the error is an UnsupportedKindError.
func IsUnsupportedKind(err error) bool {
	var e *UnsupportedKindError
	return errors.As(err, &e)
}

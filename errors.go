package weld

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for the runtime registry.
var (
	// ErrConflictingBinding is returned when two different providers are
	// registered for the same bound type in the same scope.
	ErrConflictingBinding = errors.New("weld: conflicting binding")

	// ErrUnknownScope is returned when a scope has no registered bindings.
	ErrUnknownScope = errors.New("weld: unknown scope")
)

// ConflictError reports a binding registration that clashes with an
// existing, different binding for the same scope and bound type.
type ConflictError struct {
	Scope     string
	BoundType string
	Existing  string // provider already registered
	Incoming  string // provider being registered
}

// Error returns the error string.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("weld: conflicting binding for %s in scope %q: %s vs %s",
		e.BoundType, e.Scope, e.Existing, e.Incoming)
}

// Is reports whether the target matches the sentinel error for ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflictingBinding
}

// NewConflictError creates a new ConflictError.
func NewConflictError(scope, boundType, existing, incoming string) *ConflictError {
	return &ConflictError{
		Scope:     scope,
		BoundType: boundType,
		Existing:  existing,
		Incoming:  incoming,
	}
}

// IsConflict reports whether the error is a ConflictError.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *ConflictError
	return errors.As(err, &e) || errors.Is(err, ErrConflictingBinding)
}

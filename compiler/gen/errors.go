package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for generation failures.
var (
	// ErrDuplicateFile indicates two generators produced differing
	// content for the same target path in one round.
	ErrDuplicateFile = errors.New("weld: duplicate generated file")

	// ErrTrackingViolation indicates an untracked descriptor was produced
	// while source tracking is enabled.
	ErrTrackingViolation = errors.New("weld: source tracking violation")

	// ErrGeneratorFailed indicates an internal fault inside a generator.
	ErrGeneratorFailed = errors.New("weld: generator failed")
)

// DuplicateFileError reports conflicting content generated for one path.
type DuplicateFileError struct {
	Path       string // absolute path of the conflicting file
	Generators []string
}

// Error implements the error interface.
func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("weld: generators %s produced conflicting content for %s",
		strings.Join(e.Generators, " and "), e.Path)
}

// Is reports whether the target matches the sentinel error for DuplicateFileError.
func (e *DuplicateFileError) Is(target error) bool {
	return target == ErrDuplicateFile
}

// NewDuplicateFileError creates a new DuplicateFileError.
func NewDuplicateFileError(path string, generators ...string) *DuplicateFileError {
	return &DuplicateFileError{Path: path, Generators: generators}
}

// TrackingError reports a descriptor produced without source tracking
// while tracking is enabled for the build. Restoring such a file on a
// later incremental build would be unsound, so the round fails instead.
type TrackingError struct {
	Generator string
	Path      string // absolute path of the violating file
}

// Error implements the error interface. The message includes both
// supported ways of disabling tracking for builds that cannot adopt it.
func (e *TrackingError) Error() string {
	return fmt.Sprintf("weld: generator %q produced untracked file %s while source tracking is enabled; "+
		"either report contributing sources from the generator, "+
		"or disable tracking with `trackSourceFiles: false` in weld.yaml "+
		"or `weld.trackSourceFiles=false` in weld.properties",
		e.Generator, e.Path)
}

// Is reports whether the target matches the sentinel error for TrackingError.
func (e *TrackingError) Is(target error) bool {
	return target == ErrTrackingViolation
}

// NewTrackingError creates a new TrackingError.
func NewTrackingError(generator, path string) *TrackingError {
	return &TrackingError{Generator: generator, Path: path}
}

// GeneratorError wraps an uncaught fault inside a generator with the
// generator's identity, so a misbehaving generator is reported as a
// compilation error instead of crashing the build.
type GeneratorError struct {
	Generator string
	Phase     string // "isApplicable", "generate", "write", "passes"
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *GeneratorError) Error() string {
	var b strings.Builder
	b.WriteString("weld: generator")
	if e.Generator != "" {
		fmt.Fprintf(&b, " %q", e.Generator)
	}
	if e.Phase != "" {
		b.WriteString(" failed in ")
		b.WriteString(e.Phase)
	} else {
		b.WriteString(" failed")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GeneratorError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GeneratorError.
func (e *GeneratorError) Is(target error) bool {
	return target == ErrGeneratorFailed
}

// NewGeneratorError creates a new GeneratorError.
func NewGeneratorError(generator, phase, message string, cause error) *GeneratorError {
	return &GeneratorError{Generator: generator, Phase: phase, Message: message, Cause: cause}
}

// IsDuplicateFile reports whether the error is a DuplicateFileError.
func IsDuplicateFile(err error) bool {
	var e *DuplicateFileError
	return errors.As(err, &e)
}

// IsTrackingViolation reports whether the error is a TrackingError.
func IsTrackingViolation(err error) bool {
	var e *TrackingError
	return errors.As(err, &e)
}

// IsGeneratorFailure reports whether the error is a GeneratorError.
func IsGeneratorFailure(err error) bool {
	var e *GeneratorError
	return errors.As(err, &e)
}

// Package errors provides the error types shared by jsync's packages.
//
// Every type that wraps an underlying error implements Unwrap, so callers
// classify failures with errors.Is and errors.As. A reconciliation pass maps
// these types onto project markers:
//   - ConfigError: malformed descriptor with location (matches ErrMalformedDescriptor)
//   - LevelError: level outside the toolchain range (matches ErrUnsupportedLevel)
//   - RepositoryError: a parent descriptor could not be fetched
//   - ReconcileError: a pass failed in one of its phases
//   - ValidationError: a descriptor element is invalid
//   - NotFoundError: a descriptor, project or host model does not exist
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDescriptor is matched by every ConfigError.
	ErrMalformedDescriptor = errors.New("malformed descriptor")
	// ErrUnsupportedLevel is matched by every LevelError.
	ErrUnsupportedLevel = errors.New("unsupported level")
)

// Phase names the step of a reconciliation pass that failed.
type Phase string

const (
	PhaseRead    Phase = "read"
	PhaseParse   Phase = "parse"
	PhaseResolve Phase = "resolve"
	PhaseMap     Phase = "map"
	PhaseApply   Phase = "apply"
)

// ConfigError is a descriptor that could not be parsed, decoded or
// validated. Line and Column are 0 when the location is unknown.
type ConfigError struct {
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	location := e.File
	switch {
	case e.Line > 0 && e.Column > 0:
		location = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	case e.Line > 0:
		location = fmt.Sprintf("%s:%d", e.File, e.Line)
	}

	if e.Err != nil {
		return fmt.Sprintf("malformed descriptor at %s: %s: %v", location, e.Message, e.Err)
	}
	return fmt.Sprintf("malformed descriptor at %s: %s", location, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrMalformedDescriptor }

// LevelError is a requested compiler level the toolchain cannot honor.
// Fallback is the level used instead, empty when there is none.
type LevelError struct {
	Option    string // "source", "target", "compliance", "release" or "require_java"
	Requested string
	Supported string // e.g. "1.8..21"
	Fallback  string
}

func (e *LevelError) Error() string {
	if e.Fallback != "" {
		return fmt.Sprintf("unsupported %s level %s (supported: %s), using %s", e.Option, e.Requested, e.Supported, e.Fallback)
	}
	return fmt.Sprintf("unsupported %s level %s (supported: %s)", e.Option, e.Requested, e.Supported)
}

func (e *LevelError) Is(target error) bool { return target == ErrUnsupportedLevel }

// RepositoryError is a failure fetching a parent descriptor.
type RepositoryError struct {
	URL string
	Op  string // "parse", "fetch" or "verify"
	Err error
}

func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("repository error: %s failed for %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("repository error: %s failed for %s", e.Op, e.URL)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// ReconcileError is a reconciliation pass of one project that failed.
type ReconcileError struct {
	Project string
	Phase   Phase
	Err     error
}

func (e *ReconcileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reconcile %s: %s: %v", e.Project, e.Phase, e.Err)
	}
	return fmt.Sprintf("reconcile %s: %s failed", e.Project, e.Phase)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// ValidationError is an invalid descriptor element, such as
// "execution:default-testCompile". Field is empty when the whole element
// is at fault.
type ValidationError struct {
	Element string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: field %q: %s", e.Element, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Element, e.Message)
}

// NotFoundError reports a missing descriptor, project or host model.
type NotFoundError struct {
	What string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Name)
}

// NewConfigError creates a ConfigError. Use line=0 and col=0 if the
// location is unknown.
func NewConfigError(file string, line, col int, msg string, err error) *ConfigError {
	return &ConfigError{File: file, Line: line, Column: col, Message: msg, Err: err}
}

// NewLevelError creates a LevelError.
func NewLevelError(option, requested, supported, fallback string) *LevelError {
	return &LevelError{Option: option, Requested: requested, Supported: supported, Fallback: fallback}
}

// NewRepositoryError creates a RepositoryError.
func NewRepositoryError(url, op string, err error) *RepositoryError {
	return &RepositoryError{URL: url, Op: op, Err: err}
}

// NewReconcileError creates a ReconcileError.
func NewReconcileError(project string, phase Phase, err error) *ReconcileError {
	return &ReconcileError{Project: project, Phase: phase, Err: err}
}

// NewValidationError creates a ValidationError.
func NewValidationError(element, field, message string) *ValidationError {
	return &ValidationError{Element: element, Field: field, Message: message}
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(what, name string) *NotFoundError {
	return &NotFoundError{What: what, Name: name}
}

// Location returns the descriptor file and line a malformed descriptor
// error points at. ok is false when err carries no ConfigError.
func Location(err error) (file string, line int, ok bool) {
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		return "", 0, false
	}
	return cfgErr.File, cfgErr.Line, true
}

// Re-exported from the standard library so callers need only this package.
var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Wrap annotates err with message. It returns nil when err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Package errors defines the stable error taxonomy surfaced to tool-calling
// clients. Every failure that crosses the transport boundary carries a kind,
// a human-readable message, a retry hint, and alternative operations to try.
package errors

import (
	"errors"
	"fmt"
)

// Kind represents stable error kinds for all failure modes
type Kind string

const (
	// BuildValidationFailed indicates pre-flight build errors exist
	BuildValidationFailed Kind = "BUILD_VALIDATION_FAILED"
	// DuplicateFilesDetected indicates logical-name collisions were only partially recovered
	DuplicateFilesDetected Kind = "DUPLICATE_FILES_DETECTED"
	// ProjectDiscoveryFailed indicates no usable build target at the given path
	ProjectDiscoveryFailed Kind = "PROJECT_DISCOVERY_FAILED"
	// ResourceLimitExceeded indicates a result set or token budget was exceeded
	ResourceLimitExceeded Kind = "RESOURCE_LIMIT_EXCEEDED"
	// ConfigurationError indicates structurally invalid caller arguments
	ConfigurationError Kind = "CONFIGURATION_ERROR"
	// NotFound indicates a named symbol, class, or selection does not exist
	NotFound Kind = "NOT_FOUND"
	// Internal indicates an unexpected error
	Internal Kind = "INTERNAL_ERROR"
)

// RefactorError is the structured error returned across the tool boundary
type RefactorError struct {
	Kind         Kind     `json:"kind"`
	Message      string   `json:"message"`
	CanRetry     bool     `json:"canRetry"`
	Suggestion   string   `json:"suggestion,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	cause        error
}

// Error implements the error interface
func (e *RefactorError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *RefactorError) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error
func (e *RefactorError) WithCause(cause error) *RefactorError {
	e.cause = cause
	return e
}

// retryable maps each kind to whether the caller can usefully retry
var retryable = map[Kind]bool{
	BuildValidationFailed:  false,
	DuplicateFilesDetected: true,
	ProjectDiscoveryFailed: true,
	ResourceLimitExceeded:  true,
	ConfigurationError:     true,
	NotFound:               true,
	Internal:               false,
}

// KindAlternatives maps error kinds to operations worth trying instead
var KindAlternatives = map[Kind][]string{
	BuildValidationFailed:  {"analyze_project_structure", "auto_fix"},
	DuplicateFilesDetected: {"analyze_solution"},
	ProjectDiscoveryFailed: {"analyze_project_structure"},
	ResourceLimitExceeded:  {"find_symbol"},
	NotFound:               {"find_symbol", "get_class_context"},
}

// New creates a RefactorError of the given kind
func New(kind Kind, message string) *RefactorError {
	return &RefactorError{
		Kind:         kind,
		Message:      message,
		CanRetry:     retryable[kind],
		Alternatives: KindAlternatives[kind],
	}
}

// Newf creates a RefactorError with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *RefactorError {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithSuggestion sets the human-readable suggestion
func (e *RefactorError) WithSuggestion(s string) *RefactorError {
	e.Suggestion = s
	return e
}

// NewBuildValidationFailed creates the error returned when pre-flight build errors exist
func NewBuildValidationFailed(errorCount int, summary string) *RefactorError {
	return Newf(BuildValidationFailed, "build failed with %d error(s)", errorCount).
		WithSuggestion("Fix the build errors listed in the summary, then retry. Summary: " + summary)
}

// NewProjectDiscoveryFailed creates the error returned when no build target was found
func NewProjectDiscoveryFailed(path string) *RefactorError {
	return Newf(ProjectDiscoveryFailed, "no solution or project file found under %q", path).
		WithSuggestion("Check the path points at a directory containing a .sln or .csproj file")
}

// NewNotFound creates the error returned when a named target does not exist
func NewNotFound(what, name string) *RefactorError {
	return Newf(NotFound, "%s %q not found", what, name).
		WithSuggestion("Use find_symbol to locate the exact name before retrying")
}

// NewConfiguration creates the error returned for invalid caller arguments
func NewConfiguration(field, problem string) *RefactorError {
	return Newf(ConfigurationError, "invalid argument %q: %s", field, problem)
}

// NewResourceLimit creates the error returned when a result budget was exceeded
func NewResourceLimit(limit int, what string) *RefactorError {
	return Newf(ResourceLimitExceeded, "%s exceeded the limit of %d", what, limit).
		WithSuggestion("Narrow the scope or lower maxResults and retry")
}

// KindOf extracts the kind from an error chain, or Internal for plain errors
func KindOf(err error) Kind {
	var re *RefactorError
	if errors.As(err, &re) {
		return re.Kind
	}
	return Internal
}

// AsRefactorError converts any error into a structured RefactorError,
// wrapping plain errors as Internal so nothing crosses the transport unstructured.
func AsRefactorError(err error) *RefactorError {
	var re *RefactorError
	if errors.As(err, &re) {
		return re
	}
	return New(Internal, err.Error()).WithCause(err)
}

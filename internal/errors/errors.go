// Package errors provides a lightweight structured error type (TagIndexError)
// for category-based classification in the build pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a tagindex error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Document processing errors
	CategoryFrontmatter ErrorCategory = "frontmatter"
	CategoryTemplate    ErrorCategory = "template"
	CategoryFileSystem  ErrorCategory = "filesystem"

	// External system integration errors
	CategoryGit    ErrorCategory = "git"
	CategoryState  ErrorCategory = "state"
	CategoryEvents ErrorCategory = "events"

	// Runtime and infrastructure errors
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// TagIndexError is a structured error with category, retryability, and context
type TagIndexError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for TagIndexError
type ContextFields map[string]any

// Error implements the error interface
func (e *TagIndexError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *TagIndexError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *TagIndexError) WithContext(key string, value any) *TagIndexError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new TagIndexError
func New(category ErrorCategory, severity ErrorSeverity, message string) *TagIndexError {
	return &TagIndexError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new TagIndexError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *TagIndexError {
	return &TagIndexError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable TagIndexError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *TagIndexError {
	return &TagIndexError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if te, ok := err.(*TagIndexError); ok {
		return te.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if te, ok := err.(*TagIndexError); ok {
		return te.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a TagIndexError
func GetCategory(err error) ErrorCategory {
	if te, ok := err.(*TagIndexError); ok {
		return te.Category
	}
	return CategoryInternal
}

// GetSeverity extracts the severity from an error, defaulting to SeverityError
func GetSeverity(err error) ErrorSeverity {
	if te, ok := err.(*TagIndexError); ok {
		return te.Severity
	}
	return SeverityError
}

// ConfigError creates a fatal configuration error
func ConfigError(message string) *TagIndexError {
	return &TagIndexError{
		Category:  CategoryConfig,
		Severity:  SeverityFatal,
		Message:   message,
		Retryable: false,
	}
}

// FileSystemError wraps an I/O failure as a fatal filesystem error
func FileSystemError(err error, message string) *TagIndexError {
	return &TagIndexError{
		Category:  CategoryFileSystem,
		Severity:  SeverityFatal,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// ParseWarning wraps a front-matter parse failure as a warning; the document
// is treated as carrying no metadata and the pass continues.
func ParseWarning(err error, message string) *TagIndexError {
	return &TagIndexError{
		Category:  CategoryFrontmatter,
		Severity:  SeverityWarning,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

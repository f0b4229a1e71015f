package errors

import (
	"errors"
	"fmt"
)

// AuroraError is the structured error type for Aurora.
// It provides rich context for error handling, logging, and user presentation.
type AuroraError struct {
	// Code is the unique error code (e.g., "ERR_301_UPSTREAM_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *AuroraError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AuroraError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with AuroraError.
func (e *AuroraError) Is(target error) bool {
	if t, ok := target.(*AuroraError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *AuroraError) WithDetail(key, value string) *AuroraError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *AuroraError) WithSuggestion(suggestion string) *AuroraError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AuroraError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *AuroraError {
	return &AuroraError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an AuroraError from an existing error.
// The error's message becomes the AuroraError message.
func Wrap(code string, err error) *AuroraError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// UpstreamError creates an error for an unreachable message source.
func UpstreamError(message string, cause error) *AuroraError {
	return New(ErrCodeUpstreamUnavailable, message, cause).
		WithSuggestion("check the upstream messages API or retry once it is reachable")
}

// SynthesisError creates an error for a failed answer-synthesis call.
func SynthesisError(message string, cause error) *AuroraError {
	return New(ErrCodeSynthesisFailed, message, cause)
}

// IndexNotReadyError creates an error for queries issued before any build.
func IndexNotReadyError(message string) *AuroraError {
	return New(ErrCodeIndexNotReady, message, nil).
		WithSuggestion("run 'aurora index' or wait for startup indexing to complete")
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *AuroraError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *AuroraError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AuroraError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is an AuroraError with the Retryable flag set.
func IsRetryable(err error) bool {
	var ae *AuroraError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// CodeOf returns the error code of an AuroraError in the chain, or "" if none.
func CodeOf(err error) string {
	var ae *AuroraError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}

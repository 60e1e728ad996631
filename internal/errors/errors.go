// Package errors defines the advisor's validation errors and the
// operation wrapper that pairs internal failures with a user-facing reply.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the parent of every ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyResponse indicates a generation call returned no text.
	ErrEmptyResponse = errors.New("empty response")
)

// Validation codes surfaced to API callers.
const (
	CodeMissingMessage  = "missing-message"
	CodeGradeNotSet     = "grade-not-set"
	CodeGradeRequired   = "grade-required"
	CodeGradeNotNumber  = "grade-not-number"
	CodeGradeOutOfRange = "grade-out-of-range"
	CodeInvalidRequest  = "invalid-request"
)

// ValidationError represents input validation failures.
// Message is safe to show to the end user.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s (%s): %s", e.Field, e.Code, e.Message)
}

// Is reports whether target carries the same validation code.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Unwrap ties every validation error to ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(code, field, message string) *ValidationError {
	return &ValidationError{
		Code:    code,
		Field:   field,
		Message: message,
	}
}

// Predefined validation errors. Compare with errors.Is.
var (
	ErrMissingMessage = NewValidationError(CodeMissingMessage, "message", "Message is required")
	ErrGradeNotSet    = NewValidationError(CodeGradeNotSet, "grade", "Please set your grade first.")
	ErrGradeRequired  = NewValidationError(CodeGradeRequired, "grade", "Grade is required")
	ErrGradeNotNumber = NewValidationError(CodeGradeNotNumber, "grade", "Grade must be a valid number.")
	ErrGradeRange     = NewValidationError(CodeGradeOutOfRange, "grade", "Invalid grade input. Please provide a grade between 8 and 12.")
)

// AsValidation extracts a ValidationError from err's chain.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound covers both genuine absence and entities the caller is
	// not allowed to see. Existence is never revealed to unauthorized
	// callers.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks mutations that require ownership the caller lacks.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned on a version mismatch or a unique-constraint
	// violation. The caller must re-fetch and resubmit; nothing retries
	// automatically.
	ErrConflict = errors.New("conflict")

	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
)

// FieldIssue is a single field-level validation problem.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level issues for a malformed input.
// It is recovered at the HTTP boundary as a 400 and is never partially
// applied.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + ": " + issue.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Issues: []FieldIssue{{Field: field, Message: message}}}
}

func (e *ValidationError) add(field, message string) *ValidationError {
	e.Issues = append(e.Issues, FieldIssue{Field: field, Message: message})
	return e
}

func (e *ValidationError) orNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// StateError marks a lifecycle transition blocked by a guard: cancelling a
// paid-against instance, uncancelling with payments, overriding a final
// instance, deleting with payments.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return e.Reason
}

// NewStateError builds a StateError with a formatted reason.
func NewStateError(format string, args ...any) *StateError {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a session or trace row is not found
	ErrNotFound = errors.New("entity not found")

	// ErrForbidden is returned when an operation lacks a valid owner or
	// tenant identity
	ErrForbidden = errors.New("missing or invalid identity")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// HashMismatchError reports a session whose stored message hash no longer
// matches the recomputed one. Expected carries the recomputed hash so
// clients can resync.
type HashMismatchError struct {
	SessionID string
	Expected  string
	Stored    string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("session %s: message hash mismatch (expected %s)", e.SessionID, e.Expected)
}

// IsHashMismatch checks if an error is a hash mismatch and returns it.
func IsHashMismatch(err error) (*HashMismatchError, bool) {
	var hm *HashMismatchError
	if errors.As(err, &hm) {
		return hm, true
	}
	return nil, false
}

// ValidationError wraps field-specific validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

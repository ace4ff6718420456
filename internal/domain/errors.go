package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	ErrImmutableField = errors.New("field is immutable")
	ErrUnknownField   = errors.New("unknown field")
	ErrInvalidValue   = errors.New("invalid value")

	// ErrUnchanged, returned from a Commit mutation, skips the save.
	ErrUnchanged = errors.New("unchanged")
)

// FieldError reports a rejected field from an update payload.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

// IsIgnorable reports whether an Apply error should be dropped silently.
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrImmutableField) || errors.Is(err, ErrUnknownField)
}

// ValidationError is a client error with a message safe to return as-is.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a failure of the durable engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

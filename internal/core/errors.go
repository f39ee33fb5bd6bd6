package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("transaction not found")
	ErrStorage    = errors.New("storage failure")
)

// ValidationError reports input that breaks a transaction invariant.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid builds a ValidationError for field with a formatted reason.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a failure of the persistence layer. The mutation it
// belongs to was not applied.
type StorageError struct {
	Op  string
	Err error
}

// Storage wraps err as a StorageError for op. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NotFound wraps ErrNotFound with the offending id.
func NotFound(id int64) error {
	return fmt.Errorf("id %d: %w", id, ErrNotFound)
}

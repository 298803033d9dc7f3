package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
	// ErrNotFound is returned when a mutation is attempted before the profile is initialized.
	ErrNotFound = errors.New("profile not initialized")
)

// ValidationError names the first field that failed validation.
// No state is changed when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: reason,
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: field [%s]: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a failed persistence read or write.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s [%s]: %s", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

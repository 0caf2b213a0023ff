package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every "does not exist" outcome.
	ErrNotFound = errors.New("not found")
	// ErrContestNotFound is returned when a contest id does not resolve.
	ErrContestNotFound = fmt.Errorf("contest %w", ErrNotFound)
	// ErrAttemptNotFound is returned when no attempt exists for the request.
	ErrAttemptNotFound = fmt.Errorf("attempt %w", ErrNotFound)
	// ErrForbidden indicates the identity lacks the role required by the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated indicates that no usable identity accompanied the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrContestNotOpen is returned outside the contest window or while the contest is inactive.
	ErrContestNotOpen = errors.New("contest is not open")
	// ErrAlreadySubmitted is returned for any action against a completed attempt.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrExpired reports that the attempt ran out of time and its score was frozen.
	ErrExpired = errors.New("attempt time budget exhausted")
	// ErrValidationFailed is the root of malformed contest definitions.
	ErrValidationFailed = errors.New("validation failed")
	// ErrStorage is the root of backing store failures.
	ErrStorage = errors.New("storage error")
)

// ValidationError pinpoints the field of a contest definition that was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidationFailed, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StorageError wraps a driver failure with the store operation that produced it.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err, or returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

package errors

import (
	"errors"
	"fmt"
)

var (
	ErrGradeRecordNotFound = errors.New("grade record not found")
	ErrResolutionNotFound  = errors.New("resolution request not found")
	ErrNotAssigned         = errors.New("professor is not assigned to this subject offering")
	ErrWrongReviewer       = errors.New("approval step belongs to a different reviewer role")
)

// ValidationError reports malformed input. It is surfaced to the caller
// and never retried.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

func NewValidationError(field string, value interface{}, message string) error {
	return ValidationError{Field: field, Value: value, Message: message}
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ConflictError means an open resolution request already exists for the
// record, or a concurrent writer won the atomic check-and-create race.
// The caller may retry after refreshing state.
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

func NewConflictError(message string) error {
	return ConflictError{Message: message}
}

func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// LockedError means the record is under a retake lock and cannot accept
// a resubmission until the lock clears.
type LockedError struct {
	Message string
}

func (e LockedError) Error() string {
	return fmt.Sprintf("locked: %s", e.Message)
}

func NewLockedError(message string) error {
	return LockedError{Message: message}
}

func IsLocked(err error) bool {
	var le LockedError
	return errors.As(err, &le)
}

// InvalidStateError means the operation was attempted on a record or
// request that is not in the required state. It indicates stale client
// state; the caller should refresh.
type InvalidStateError struct {
	Message string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Message)
}

func NewInvalidStateError(message string) error {
	return InvalidStateError{Message: message}
}

func IsInvalidState(err error) bool {
	var ie InvalidStateError
	return errors.As(err, &ie)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrGradeRecordNotFound) || errors.Is(err, ErrResolutionNotFound)
}

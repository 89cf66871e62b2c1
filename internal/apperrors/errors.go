// Package apperrors defines the error kinds shared by the scheduler, the
// study service and the transport layers.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks. Every typed error below matches exactly one.
var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid scheduling state")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// ValidationError reports a rejected input value. No state was changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidStateError reports persisted scheduling state that breaks its invariants.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return "invalid state: " + e.Message }

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// NotFoundError reports a missing record, or one that belongs to another user.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found with id %d", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a concurrent modification or an illegal transition.
type ConflictError struct {
	Entity  string
	ID      int64
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Message)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Validation is shorthand for building a *ValidationError.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound is shorthand for building a *NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Conflict is shorthand for building a *ConflictError.
func Conflict(entity string, id int64, message string) error {
	return &ConflictError{Entity: entity, ID: id, Message: message}
}

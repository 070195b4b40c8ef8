package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidOperation indicates a reconciliation request that can never
	// succeed, such as merging a record into itself.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrStoreUnavailable indicates that a read or write against the
	// persistent store failed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPartialReconciliation indicates a merge whose encounter reassignment
	// was applied but whose client deletion was not. The superseded record
	// still exists and owns zero encounters.
	ErrPartialReconciliation = errors.New("partial reconciliation")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidOperationError provides details about a rejected reconciliation request.
type InvalidOperationError struct {
	Operation string
	Reason    string
}

// Error implements the error interface.
func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Operation, e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InvalidOperationError) Unwrap() error {
	return ErrInvalidOperation
}

// PartialReconciliationError describes a half-applied merge: the superseded
// client record still exists but its encounters were already reassigned.
type PartialReconciliationError struct {
	KeepID string
	DropID string
}

// Error implements the error interface.
func (e *PartialReconciliationError) Error() string {
	return fmt.Sprintf("partial reconciliation: client %s still exists with zero encounters after merge into %s", e.DropID, e.KeepID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *PartialReconciliationError) Unwrap() error {
	return ErrPartialReconciliation
}

// StoreError wraps a low-level store failure with the operation that caused it.
type StoreError struct {
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *StoreError) Unwrap() error {
	return ErrStoreUnavailable
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewInvalidOperationError creates a new InvalidOperationError.
func NewInvalidOperationError(operation, reason string) *InvalidOperationError {
	return &InvalidOperationError{
		Operation: operation,
		Reason:    reason,
	}
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation string, cause error) *StoreError {
	return &StoreError{
		Operation: operation,
		Cause:     cause,
	}
}

package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrSourceNotFound indicates that the input data file does not exist.
	// Scans abort on this error before any batch is read.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMissingColumn indicates that a required column is absent from the
	// source header.
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternalError indicates an internal error.
	ErrInternalError = errors.New("internal error")
)

// SourceNotFoundError provides details about a missing data file.
type SourceNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source not found: %s", e.Path)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *SourceNotFoundError) Unwrap() error {
	return ErrSourceNotFound
}

// MissingColumnError provides details about a required column absent from
// the source header.
type MissingColumnError struct {
	Column string
	Path   string
}

// Error implements the error interface.
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q missing from %s", e.Column, e.Path)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
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

// NewSourceNotFoundError creates a new SourceNotFoundError.
func NewSourceNotFoundError(path string) *SourceNotFoundError {
	return &SourceNotFoundError{Path: path}
}

// NewMissingColumnError creates a new MissingColumnError.
func NewMissingColumnError(column, path string) *MissingColumnError {
	return &MissingColumnError{
		Column: column,
		Path:   path,
	}
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

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors returned by repositories and services.
var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrItemNotFound = errors.New("item not found")

	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")

	ErrTitleRequired   = fmt.Errorf("%w: title is required", ErrValidation)
	ErrContentRequired = fmt.Errorf("%w: content is required", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid todo status", ErrValidation)

	// ErrInvalidFilter is returned when a query filter cannot be applied.
	ErrInvalidFilter = fmt.Errorf("%w: invalid filter", ErrValidation)
)

// FieldError describes a problem with a single input field.
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError collects field-level problems found in a request.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError is a shorthand for a single-field ValidationError.
func NewValidationError(field, issue string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Issue: issue}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Issue)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FilterError reports an unusable part of a query filter. Path points at the
// offending element, e.g. "where.status.gt".
type FilterError struct {
	Path   string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter at %s: %s", e.Path, e.Reason)
}

func (e *FilterError) Unwrap() error { return ErrInvalidFilter }

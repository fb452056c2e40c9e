package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing point.
	ErrNotFound = errors.New("not found")
	// ErrUnknownCollection signals a collection that is neither configured nor present in the backend.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrSchemaConflict signals an existing collection whose dimension or metric differs from the requested one.
	ErrSchemaConflict = errors.New("schema conflict")
	// ErrDimensionMismatch signals a vector whose length differs from the collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidFilter signals a malformed filter expression.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidRequest signals a malformed request (limit, threshold, weights, empty vector).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrBackendUnavailable signals a connectivity failure or timeout talking to the vector engine.
	ErrBackendUnavailable = errors.New("vector backend unavailable")
	// ErrUpstreamInput signals bad input reported by an embedding or audio collaborator.
	ErrUpstreamInput = errors.New("upstream input error")
	// ErrNotImplemented signals an operation the configured backend does not support.
	ErrNotImplemented = errors.New("not implemented")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the offending collection and sizes.
type DimensionMismatchError struct {
	Collection string
	Expected   int
	Actual     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: collection %q expects %d components, got %d",
		ErrDimensionMismatch.Error(), e.Collection, e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(collection string, expected, actual int) error {
	return &DimensionMismatchError{Collection: collection, Expected: expected, Actual: actual}
}

// SchemaConflictError wraps ErrSchemaConflict with the requested and the existing schema.
type SchemaConflictError struct {
	Collection string
	Want       string
	Have       string
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("%s: collection %q exists as %s, requested %s",
		ErrSchemaConflict.Error(), e.Collection, e.Have, e.Want)
}

func (e *SchemaConflictError) Unwrap() error { return ErrSchemaConflict }

// NewSchemaConflict creates a schema conflict error.
func NewSchemaConflict(collection, want, have string) error {
	return &SchemaConflictError{Collection: collection, Want: want, Have: have}
}

// FilterError wraps ErrInvalidFilter with the offending field.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", ErrInvalidFilter.Error(), e.Field, e.Reason)
}

func (e *FilterError) Unwrap() error { return ErrInvalidFilter }

// NewFilterError creates an invalid filter error for a field.
func NewFilterError(field, reason string) error {
	return &FilterError{Field: field, Reason: reason}
}

package crud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-crud-admin/query"
)

// Sentinel errors for engine operations.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidID     = errors.New("malformed identifier")
	ErrEmptyBatch    = errors.New("batch is empty")
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)

// ValidationError reports a payload that violates the entity rules.
type ValidationError struct {
	Entity string
	// Fields maps a JSON field name to the rule it broke.
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s validation failed: %v", e.Entity, e.Err)
		}
		return e.Entity + " validation failed"
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("%s validation failed: %s", e.Entity, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConflictError reports a write that would duplicate a unique key.
type ConflictError struct {
	Entity string
	Field  string
	Value  string
	Err    error
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s duplicate key", e.Entity)
	}
	return fmt.Sprintf("%s duplicate key: %s %q already exists", e.Entity, e.Field, e.Value)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failure of the underlying store. The whole operation may
// be retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err is a store failure worth retrying.
func Retryable(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && !errors.Is(err, context.Canceled)
}

func newValidationError(entity string, err error) *ValidationError {
	ve := &ValidationError{Entity: entity, Err: err}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		ve.Fields = make(map[string]string, len(verrs))
		for field, ferr := range verrs {
			ve.Fields[field] = ferr.Error()
		}
	}
	return ve
}

func fieldError(entity, field, message string) *ValidationError {
	return &ValidationError{Entity: entity, Fields: map[string]string{field: message}}
}

// HTTPStatus maps an engine error to a response status code.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		ce *ConflictError
		pe *query.ParamError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve), errors.As(err, &pe),
		errors.Is(err, ErrInvalidID), errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

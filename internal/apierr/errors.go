// Package apierr defines the error kinds surfaced by the search API.
package apierr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports one or more invalid request fields.
// It is surfaced to the caller with field-level detail and is never retried.
type ValidationError struct {
	Fields map[string]string
}

// NewValidation creates a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records an additional invalid field and returns the receiver.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports an unresolvable resource, e.g. an unknown
// category or persona slug.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFound creates a NotFoundError for the given resource kind and identifier.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UpstreamError reports a failure in an external collaborator (index or
// taxonomy store). Partial failure is reported, never masked with stale or
// unfiltered results.
type UpstreamError struct {
	Op  string
	Err error
}

// NewUpstream wraps err as an UpstreamError for the named operation.
func NewUpstream(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrNoDocument      = errors.New("order has no archived document")
	ErrPageCountFailed = errors.New("page count failed")
	ErrPersistence     = errors.New("order persistence failed")
)

// ValidationError is a user-correctable problem with one form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PageCountError wraps whatever the page counter returned. It matches
// ErrPageCountFailed and, through Unwrap, the original cause.
type PageCountError struct {
	Cause error
}

func (e *PageCountError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPageCountFailed, e.Cause)
}

func (e *PageCountError) Unwrap() []error {
	return []error{ErrPageCountFailed, e.Cause}
}

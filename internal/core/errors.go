package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned when no owner identity can be resolved
	// for the caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when the target record does not exist for
	// the calling owner. A record owned by someone else is reported the
	// same way so that existence of other owners' data never leaks.
	ErrNotFound = errors.New("expense not found")
)

// FieldError describes a single violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field-level invariant violation found in
// one validation pass, so callers can surface all of them at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Empty reports whether no violations were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

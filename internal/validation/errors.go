package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedBody is wrapped by errors for request bodies that are not parseable JSON
var ErrMalformedBody = errors.New("malformed request body")

// FieldError is one itemised problem with a request. Field is a JSON path
// (e.g. "abilities[1].damage") and may be empty for document-level problems.
type FieldError struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Reason
	}
	return f.Field + ": " + f.Reason
}

// SchemaError reports field-level shape problems: missing fields, wrong types,
// values out of their declared bounds, unknown fields.
type SchemaError struct {
	Fields []FieldError
}

func (e *SchemaError) Error() string {
	return "invalid request: " + joinFieldErrors(e.Fields)
}

// ValidationError reports violated cross-field or cross-entity rules.
// Failures holds every violated rule, not just the first one.
type ValidationError struct {
	Entity   string
	Failures []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Entity, joinFieldErrors(e.Failures))
}

// NotFoundError reports a referenced entity id that does not resolve
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError reports a uniqueness violation detected at write time
type ConflictError struct {
	Entity  string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Message)
}

// ForbiddenError reports an authenticated caller acting on something they do not own
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is, or wraps, a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is, or wraps, a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func joinFieldErrors(fields []FieldError) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, "; ")
}

// failures accumulates rule violations so that every broken rule is reported at once
type failures []FieldError

func (f *failures) add(field, format string, args ...any) {
	*f = append(*f, FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (f failures) err(entity string) error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Entity: entity, Failures: f}
}

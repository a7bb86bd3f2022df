package dynamodel

import (
	"errors"
	"fmt"
)

// ErrItemNotFound is returned when an entity is not found by get, update, or
// remove operations. A missing entity is always reported through this
// sentinel, never as a nil-versus-null ambiguity in the result.
var ErrItemNotFound = errors.New("item not found")

// ErrModelNotFound is returned when a model name is not registered in the
// schema.
var ErrModelNotFound = errors.New("model not found")

// SchemaConflictError reports a contradictory or malformed field definition
// discovered while loading a schema. The error is fatal to the registration
// of the offending model.
type SchemaConflictError struct {
	Model  string // offending model name
	Field  string // offending field name
	Reason string
}

func (e *SchemaConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema conflict in model %q: %s", e.Model, e.Reason)
	}
	return fmt.Sprintf("schema conflict in model %q, field %q: %s", e.Model, e.Field, e.Reason)
}

func newSchemaConflict(model, field, format string, args ...any) error {
	return &SchemaConflictError{
		Model:  model,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// FilterConstructionError reports a find filter that applies an operator
// incompatible with the target field's type. The error is local to the
// filter; the caller can correct the expression and retry.
type FilterConstructionError struct {
	Model  string
	Field  string
	Op     Operator
	Reason string
}

func (e *FilterConstructionError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("invalid filter on %s.%s: %s", e.Model, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid filter on %s.%s: operator %q %s", e.Model, e.Field, e.Op, e.Reason)
}

func newFilterError(model, field string, op Operator, format string, args ...any) error {
	return &FilterConstructionError{
		Model:  model,
		Field:  field,
		Op:     op,
		Reason: fmt.Sprintf(format, args...),
	}
}

// ProjectionViolation reports input that does not satisfy an operation shape:
// a missing mandatory field, a null where nulls are disallowed, a value of
// the wrong type, or a property the model does not define. Violations are
// detected before any request is sent to DynamoDB.
type ProjectionViolation struct {
	Model  string
	Field  string
	Reason string
}

func (e *ProjectionViolation) Error() string {
	return fmt.Sprintf("invalid value for %s.%s: %s", e.Model, e.Field, e.Reason)
}

func newViolation(model, field, format string, args ...any) error {
	return &ProjectionViolation{
		Model:  model,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

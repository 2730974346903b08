package persist

import (
	"errors"
	"fmt"
)

// ErrSchema is matched by every *SchemaError.
var ErrSchema = errors.New("checkpoint schema violation")

// SchemaError reports a checkpoint entry that is missing a required field or
// carries a value of the wrong shape.
type SchemaError struct {
	// Entity is the ID of the offending entry, or a path of IDs for nested ones.
	Entity string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing required field"
	}
	if e.Entity == "" {
		return fmt.Sprintf("schema: %s %q", reason, e.Field)
	}
	return fmt.Sprintf("schema: %s: %s %q", e.Entity, reason, e.Field)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

func missing(entity, field string) error {
	return &SchemaError{Entity: entity, Field: field}
}

func invalid(entity, field, value string) error {
	return &SchemaError{Entity: entity, Field: field, Reason: fmt.Sprintf("invalid value %q for", value)}
}

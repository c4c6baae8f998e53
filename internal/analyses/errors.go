package analyses

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("analysis not found")
	ErrDuplicateKey = errors.New("analysis already exists for cache key")
	ErrNoJSONFound  = errors.New("no JSON object found in model output")
	// ErrMalformedJSON wraps the decoder error for the extracted span.
	ErrMalformedJSON = errors.New("malformed JSON in model output")
	// ErrProviderOutput marks model output that could not be turned into a ValidatedResponse.
	ErrProviderOutput = errors.New("provider returned unusable output")
	ErrInvalidDaysOld = errors.New("daysOld must be a non-negative integer")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports user-correctable request problems.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SchemaViolation names the response field and the constraint it failed.
type SchemaViolation struct {
	Field      string
	Constraint string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation: %s %s", e.Field, e.Constraint)
}

// StorageError wraps persistence failures outside of lookup.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

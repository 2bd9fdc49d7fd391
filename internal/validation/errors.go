package validation

import (
	"sort"
	"strings"
)

// Error carries every field failure from one validation pass. Handlers
// unwrap it with errors.As to build field-level API responses.
type Error struct {
	Fields map[string]string `json:"fields"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + e.Fields[field]
	}
	return strings.Join(parts, "; ")
}

// NewFieldError builds a single-field validation error
func NewFieldError(field, message string) *Error {
	return &Error{Fields: map[string]string{field: message}}
}

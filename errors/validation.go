package errors

import (
	// Go Internal Packages
	"fmt"
	"strings"
)

// FieldError is a single field level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors accumulates field errors in the order they were added.
type ValidationErrors struct {
	Fields []FieldError `json:"fields"`
}

// ValidationErrs returns an empty accumulator.
func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{}
}

// Add records a failure for field.
func (v *ValidationErrors) Add(field, msg string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: msg})
}

// Len returns the number of recorded failures.
func (v *ValidationErrors) Len() int {
	return len(v.Fields)
}

// Err returns nil when nothing was recorded, otherwise the accumulator itself.
func (v *ValidationErrors) Err() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = fmt.Sprintf("%s %s", f.Field, f.Message)
	}
	return strings.Join(parts, "; ")
}

// FieldsOf extracts the field errors carried by err, if any.
func FieldsOf(err error) []FieldError {
	var v *ValidationErrors
	if As(err, &v) {
		return v.Fields
	}
	return nil
}

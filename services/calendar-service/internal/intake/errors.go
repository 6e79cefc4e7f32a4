package intake

import (
	"fmt"
	"strings"
)

// Field names a canonical intake field in error reports.
type Field string

const (
	FieldPhone Field = "phone"
	FieldName  Field = "name"
	FieldTitle Field = "title"
	FieldTime  Field = "time"
)

// MissingFieldError reports the first required field that no alias resolved. Received holds what
// was resolved for every required field so callers can echo it back.
type MissingFieldError struct {
	Field    Field
	Received map[Field]string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

type InvalidDateFormatError struct {
	Field     string
	Received  string
	Supported []string
}

func (e *InvalidDateFormatError) Error() string {
	return fmt.Sprintf("invalid date format for %s: %q (supported: %s)", e.Field, e.Received, strings.Join(e.Supported, ", "))
}

// InvalidFieldError covers values that are present but unusable, such as a negative duration.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

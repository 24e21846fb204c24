package profile

import (
	"errors"
	"fmt"
)

// ValidationError reports a field rejected while constructing a profile or job record.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// nested prefixes the field of a ValidationError, e.g. experience[2].duration_months.
func nested(prefix string, err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	field := prefix
	if verr.Field != "" {
		field = prefix + "." + verr.Field
	}
	return &ValidationError{Field: field, Message: verr.Message}
}

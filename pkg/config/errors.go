package config

import (
	"errors"
	"fmt"
)

// ValidationError reports a configuration value that makes a run impossible.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid configuration: %s %q %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// IsValidationError checks if an error is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package cluster

import "fmt"

// ConfigurationError reports missing or malformed required input
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

// NewConfigurationError creates a configuration error for a field
func NewConfigurationError(field, message string, err error) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

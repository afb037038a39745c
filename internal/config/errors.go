package config

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned when the config file or the environment
// cannot be read.
type ConfigurationError struct {
	FilePath  string // empty for environment errors
	ErrorType string // io, parse or env
	Err       error
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.FilePath == "" {
		return fmt.Sprintf("%s error in environment: %v", ce.ErrorType, ce.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", ce.ErrorType, ce.FilePath, ce.Err)
}

// Unwrap returns the underlying error.
func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// IsConfigurationError checks if an error is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

package oauth

import (
	"errors"
	"fmt"
	"strings"
)

// UpstreamAuthError is returned when the token endpoint rejects a grant:
// an expired, reused or otherwise invalid authorization code, or an invalid
// or revoked refresh token.
type UpstreamAuthError struct {
	// StatusCode is the HTTP status returned by the token endpoint.
	StatusCode int

	// Code is the OAuth error code (e.g. "invalid_grant"), if the body had one.
	Code string

	// Description is the OAuth error_description, if any.
	Description string
}

// Error implements the error interface.
func (e *UpstreamAuthError) Error() string {
	msg := fmt.Sprintf("token endpoint rejected the request with status %d", e.StatusCode)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += " (" + e.Description + ")"
	}
	return msg
}

// IsUpstreamAuth checks if an error is or wraps an UpstreamAuthError.
func IsUpstreamAuth(err error) bool {
	var authErr *UpstreamAuthError
	return errors.As(err, &authErr)
}

// UpstreamTimeoutError is returned when a call to the provider did not
// complete within its deadline.
type UpstreamTimeoutError struct {
	// Op names the call that timed out, e.g. "token exchange".
	Op  string
	Err error
}

// Error implements the error interface.
func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *UpstreamTimeoutError) Unwrap() error {
	return e.Err
}

// IsUpstreamTimeout checks if an error is or wraps an UpstreamTimeoutError.
func IsUpstreamTimeout(err error) bool {
	var timeoutErr *UpstreamTimeoutError
	return errors.As(err, &timeoutErr)
}

// SchemaValidationError reports a payload that does not have the expected
// shape: a token response, a stored token set or a decrypted session.
type SchemaValidationError struct {
	// Subject names what was being validated.
	Subject string

	// Issues lists one entry per offending field.
	Issues []string

	Err error
}

// Error implements the error interface.
func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(e.Issues, "; "))
}

// Unwrap returns the underlying decoding error, if any.
func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

// IsSchemaValidation checks if an error is or wraps a SchemaValidationError.
func IsSchemaValidation(err error) bool {
	var schemaErr *SchemaValidationError
	return errors.As(err, &schemaErr)
}

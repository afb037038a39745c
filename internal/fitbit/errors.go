package fitbit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	if len(e.Errors) == 0 {
		return msg
	}
	details := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		detail := d.Message
		if d.FieldName != "" {
			detail = d.FieldName + ": " + detail
		}
		if d.ErrorType != "" {
			detail = d.ErrorType + " (" + detail + ")"
		}
		details = append(details, detail)
	}
	return msg + ": " + strings.Join(details, "; ")
}

// Unauthorized reports whether the API rejected the access token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsUnauthorized checks if an error is or wraps an APIError for a rejected
// access token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// IsAPIError checks if an error is or wraps an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

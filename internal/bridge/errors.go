package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"fitbridge/internal/fitbit"
	"fitbridge/pkg/oauth"
)

// PreconditionError is returned when the callback is reached without a
// login having been started in this browser session.
type PreconditionError struct {
	Reason string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// IsPrecondition checks if an error is or wraps a PreconditionError.
func IsPrecondition(err error) bool {
	var preconditionErr *PreconditionError
	return errors.As(err, &preconditionErr)
}

// StateMismatchError is returned when the state returned by the provider is
// not the one stored in the session.
type StateMismatchError struct{}

// Error implements the error interface.
func (e *StateMismatchError) Error() string {
	return "invalid state"
}

// IsStateMismatch checks if an error is or wraps a StateMismatchError.
func IsStateMismatch(err error) bool {
	var mismatchErr *StateMismatchError
	return errors.As(err, &mismatchErr)
}

// MissingParameterError is returned when the callback lacks code or state.
type MissingParameterError struct {
	Name string

	// ProviderError is the error reported by the provider instead of a code,
	// e.g. "access_denied".
	ProviderError string
}

// Error implements the error interface.
func (e *MissingParameterError) Error() string {
	if e.ProviderError != "" {
		return fmt.Sprintf("missing %s parameter: provider returned %s", e.Name, e.ProviderError)
	}
	return fmt.Sprintf("missing %s parameter", e.Name)
}

// genericErrorMessage is shown for errors that are not expected.
const genericErrorMessage = "Unknown error, check the server logs"

// classify maps an error to the HTTP status and the message shown to the
// user. Unexpected errors get a generic message.
func classify(err error) (int, string) {
	var (
		missingErr *MissingParameterError
		urlErr     *url.Error
	)

	switch {
	case IsPrecondition(err):
		return http.StatusPreconditionFailed, err.Error()
	case IsStateMismatch(err):
		return http.StatusForbidden, err.Error()
	case errors.As(err, &missingErr):
		return http.StatusBadRequest, err.Error()
	case fitbit.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case oauth.IsUpstreamTimeout(err):
		return http.StatusGatewayTimeout, err.Error()
	case oauth.IsUpstreamAuth(err), oauth.IsSchemaValidation(err), fitbit.IsAPIError(err):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &urlErr):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, genericErrorMessage
	}
}

// cancelled reports whether the client went away before we could respond.
func cancelled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

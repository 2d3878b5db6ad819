package ux

import (
	"errors"
	"fmt"
	"net/http"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
	"github.com/felixgeelhaar/progate/internal/gateway"
)

// Operator-facing copy.
const (
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgCheckConnection    = "Please check your internet connection."
	MsgSessionExpired     = "Your session has expired. Please log in again."
)

// LoginMessage maps a login failure to what the operator sees. Branching is
// on the status code and error type, never the server's wording.
func LoginMessage(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusNotFound:
			return MsgInvalidCredentials
		}
	}
	return OperatorMessage(err)
}

// OperatorMessage maps any command failure to a single line of copy.
func OperatorMessage(err error) string {
	if err == nil {
		return ""
	}

	var netErr *gateway.NetworkError
	if errors.As(err, &netErr) {
		return MsgCheckConnection
	}

	var gateErr *gerrors.GateError
	if errors.As(err, &gateErr) {
		if gateErr.Code == gerrors.ErrCodeNoRefreshToken {
			return MsgSessionExpired
		}
		return gateErr.Message
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	return err.Error()
}

// ErrorWithSuggestion wraps an error with a recovery hint
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{Err: err, Suggestion: suggestion}
}

// EnhanceError adds a next step for gateway failures. GateErrors already
// carry their own suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var netErr *gateway.NetworkError
	if errors.As(err, &netErr) {
		return NewErrorWithSuggestion(err,
			MsgCheckConnection+" If the problem persists, verify api.base_url with 'progate config view'.")
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return NewErrorWithSuggestion(err, "Run 'progate auth login' to start a new session")
		case apiErr.StatusCode == http.StatusForbidden:
			return NewErrorWithSuggestion(err, "Your account is not permitted to do this at this estate; contact the estate administrator")
		case apiErr.StatusCode >= 500:
			return NewErrorWithSuggestion(err, "The ProGate service is having trouble; try again shortly")
		}
	}

	return err
}

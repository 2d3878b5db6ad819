package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

// Sentinels for errors.Is. Returned errors carry more context but match by code.
var (
	ErrNoRefreshToken     = gerrors.New(gerrors.ErrCodeNoRefreshToken, "no refresh token available")
	ErrInvalidAlertStatus = gerrors.New(gerrors.ErrCodeInvalidAlertStatus, "invalid alert status")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

// Error returns the server-provided message verbatim.
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus exposes the status code to structured loggers.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Unauthorized reports whether the server rejected the credentials.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func newAPIError(status int, endpoint string, body json.RawMessage) *APIError {
	var payload struct {
		Message any `json:"message"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Message.(string); ok {
			message = s
		}
	}
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d", status)
	}
	return &APIError{StatusCode: status, Message: message, Endpoint: endpoint}
}

// NetworkError is returned when no response was received.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

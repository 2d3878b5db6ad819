package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Auth errors (AUTH-001 to AUTH-099)
	ErrCodeNoRefreshToken     ErrorCode = "AUTH-001"
	ErrCodeMissingCredentials ErrorCode = "AUTH-002"
	ErrCodeNotLoggedIn        ErrorCode = "AUTH-003"

	// API errors (API-001 to API-099)
	ErrCodeInvalidAlertStatus ErrorCode = "API-001"
	ErrCodeInvalidInput       ErrorCode = "API-002"
	ErrCodeSchemaViolation    ErrorCode = "API-003"
	ErrCodeDecodeResponse     ErrorCode = "API-004"

	// Store errors (STORE-001 to STORE-099)
	ErrCodeStoreUnavailable ErrorCode = "STORE-001"
	ErrCodeStoreDecrypt     ErrorCode = "STORE-002"
	ErrCodeStoreBackend     ErrorCode = "STORE-003"

	// Config errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-001"
	ErrCodeConfigNotFound ErrorCode = "CONFIG-002"
)

const docsBase = "https://github.com/felixgeelhaar/progate"

// GateError represents an error with code, suggestions, and documentation
type GateError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *GateError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *GateError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GateError with the same code.
func (e *GateError) Is(target error) bool {
	t, ok := target.(*GateError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new GateError
func New(code ErrorCode, message string) *GateError {
	return &GateError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new GateError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *GateError {
	return &GateError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *GateError) WithSuggestion(suggestion string) *GateError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *GateError) WithSuggestions(suggestions ...string) *GateError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *GateError) WithDocs(url string) *GateError {
	e.DocsURL = url
	return e
}

// HasCode reports whether err (or anything it wraps) is a GateError with code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if ge, ok := err.(*GateError); ok && ge.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Common error constructors for frequently used errors

// NewNoRefreshTokenError creates the error returned when a refresh is attempted without a stored refresh token
func NewNoRefreshTokenError() *GateError {
	return New(ErrCodeNoRefreshToken, "no refresh token available").
		WithSuggestion("Run 'progate auth login' to start a new session")
}

// NewMissingCredentialsError creates a login validation error
func NewMissingCredentialsError() *GateError {
	return New(ErrCodeMissingCredentials, "Please enter both email and password.").
		WithSuggestion("Pass --email and --password or run 'progate auth login' interactively")
}

// NewNotLoggedInError creates an error for commands that need a session
func NewNotLoggedInError() *GateError {
	return New(ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("Run 'progate auth login' to authenticate").
		WithDocs(docsBase + "#authentication")
}

// NewInvalidAlertStatusError creates an error for an unsupported alert status transition
func NewInvalidAlertStatusError(status string) *GateError {
	return New(ErrCodeInvalidAlertStatus, fmt.Sprintf("invalid alert status: %q", status)).
		WithSuggestion("Use one of: RESPONDING, RESOLVED")
}

// NewInvalidInputError creates an input validation error
func NewInvalidInputError(message string) *GateError {
	return New(ErrCodeInvalidInput, message)
}

// NewSchemaViolationError creates a response schema validation error
func NewSchemaViolationError(operation string, cause error) *GateError {
	return Wrap(ErrCodeSchemaViolation, fmt.Sprintf("response for %s does not match the API schema", operation), cause).
		WithSuggestion("Set api.validate_responses to 'warn' to continue with unvalidated data").
		WithDocs(docsBase + "#response-validation")
}

// NewStoreUnavailableError creates an error for an unreachable secure store backend
func NewStoreUnavailableError(backend string, cause error) *GateError {
	return Wrap(ErrCodeStoreUnavailable, fmt.Sprintf("secure store %q is unavailable", backend), cause).
		WithSuggestion("Check the store.* settings with 'progate config view'").
		WithSuggestion("Use store.backend=file for a local encrypted store")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *GateError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'progate config view' to inspect the effective configuration").
		WithDocs(docsBase + "#configuration")
}

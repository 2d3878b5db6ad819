package exitcode

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
	"github.com/felixgeelhaar/progate/internal/gateway"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates an invalid or missing configuration
	ConfigError = 3

	// StoreError indicates the secure store could not be read or written
	StoreError = 4

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates the API could not be reached
	NetworkError = 6

	// Interrupted indicates the command was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code by type and status,
// falling back to cobra's usage wording for flag and argument errors.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) {
		return Interrupted
	}

	var netErr *gateway.NetworkError
	if errors.As(err, &netErr) {
		return NetworkError
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return AuthError
		}
		return GeneralError
	}

	var gateErr *gerrors.GateError
	if errors.As(err, &gateErr) {
		switch gateErr.Code {
		case gerrors.ErrCodeNoRefreshToken, gerrors.ErrCodeNotLoggedIn, gerrors.ErrCodeMissingCredentials:
			return AuthError
		case gerrors.ErrCodeInvalidAlertStatus, gerrors.ErrCodeInvalidInput:
			return UsageError
		case gerrors.ErrCodeConfigInvalid, gerrors.ErrCodeConfigNotFound:
			return ConfigError
		case gerrors.ErrCodeStoreUnavailable, gerrors.ErrCodeStoreDecrypt, gerrors.ErrCodeStoreBackend:
			return StoreError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())
	for _, marker := range usageMarkers {
		if strings.Contains(errMsg, marker) {
			return UsageError
		}
	}

	return GeneralError
}

var usageMarkers = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"invalid argument",
	"required flag",
	"flag needs an argument",
	"accepts ",
	"requires at least",
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case StoreError:
		return "Secure store error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}

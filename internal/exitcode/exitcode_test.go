package exitcode

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
	"github.com/felixgeelhaar/progate/internal/gateway"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"plain", errors.New("boom"), GeneralError},
		{"cancelled", fmt.Errorf("alerts: %w", context.Canceled), Interrupted},
		{"network", &gateway.NetworkError{Endpoint: "/alerts/", Err: errors.New("connection refused")}, NetworkError},
		{"401", &gateway.APIError{StatusCode: 401, Message: "Unauthorized"}, AuthError},
		{"403 wrapped", fmt.Errorf("update: %w", &gateway.APIError{StatusCode: 403}), AuthError},
		{"404", &gateway.APIError{StatusCode: 404, Message: "Not found"}, GeneralError},
		{"no refresh token", gerrors.NewNoRefreshTokenError(), AuthError},
		{"not logged in", gerrors.NewNotLoggedInError(), AuthError},
		{"bad alert status", gerrors.NewInvalidAlertStatusError("ACTIVE"), UsageError},
		{"empty plate", gerrors.NewInvalidInputError("Please enter a plate number"), UsageError},
		{"config", gerrors.NewConfigInvalidError("store.backend"), ConfigError},
		{"store", gerrors.NewStoreUnavailableError("redis", errors.New("dial")), StoreError},
		{"schema", gerrors.NewSchemaViolationError("listAlerts", errors.New("bad")), GeneralError},
		{"unknown flag", errors.New("unknown flag: --nope"), UsageError},
		{"args", errors.New("accepts 1 arg(s), received 0"), UsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineExitCode(tt.err))
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	for _, code := range []int{Success, GeneralError, UsageError, ConfigError, StoreError, AuthError, NetworkError, Interrupted} {
		assert.NotEqual(t, "Unknown error", GetExitCodeDescription(code), code)
	}
	assert.Equal(t, "Unknown error", GetExitCodeDescription(42))
}

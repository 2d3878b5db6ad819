package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNoRefreshToken, "test error message")

	if err.Code != ErrCodeNoRefreshToken {
		t.Errorf("expected code %s, got %s", ErrCodeNoRefreshToken, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeStoreBackend, "failed to read key", cause)

	if err.Code != ErrCodeStoreBackend {
		t.Errorf("expected code %s, got %s", ErrCodeStoreBackend, err.Code)
	}

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *GateError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeInvalidAlertStatus, "invalid status"),
			wantCode: "API-001",
			wantMsg:  "invalid status",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeStoreDecrypt, "decrypt failed", fmt.Errorf("message authentication failed")),
			wantCode: "STORE-002",
			wantMsg:  "message authentication failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad config").
		WithSuggestions("Suggestion 1", "Suggestion 2")

	if len(err.Suggestions) != 2 {
		t.Errorf("expected 2 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Suggestions:") {
		t.Errorf("error string should contain suggestions section")
	}
	for _, suggestion := range err.Suggestions {
		if !strings.Contains(errStr, suggestion) {
			t.Errorf("error string should contain suggestion: %s", suggestion)
		}
	}
}

func TestWithDocs(t *testing.T) {
	docsURL := "https://github.com/felixgeelhaar/progate#docs"
	err := New(ErrCodeConfigInvalid, "invalid config").WithDocs(docsURL)

	if err.DocsURL != docsURL {
		t.Errorf("expected DocsURL %s, got %s", docsURL, err.DocsURL)
	}

	if !strings.Contains(err.Error(), "Documentation: "+docsURL) {
		t.Errorf("error string should contain docs URL")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(ErrCodeNoRefreshToken, "no refresh token available")
	wrapped := fmt.Errorf("refresh: %w", NewNoRefreshTokenError())

	if !errors.Is(wrapped, sentinel) {
		t.Errorf("errors.Is should match GateErrors with the same code")
	}

	if errors.Is(wrapped, New(ErrCodeNotLoggedIn, "x")) {
		t.Errorf("errors.Is should not match a different code")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(ErrCodeStoreUnavailable, "down", fmt.Errorf("dial tcp")))

	if !HasCode(err, ErrCodeStoreUnavailable) {
		t.Errorf("expected HasCode to find STORE-001 through wrapping")
	}
	if HasCode(err, ErrCodeStoreDecrypt) {
		t.Errorf("did not expect STORE-002")
	}
	if HasCode(nil, ErrCodeStoreDecrypt) {
		t.Errorf("nil error has no code")
	}
}

func TestNewMissingCredentialsError(t *testing.T) {
	err := NewMissingCredentialsError()

	if err.Message != "Please enter both email and password." {
		t.Errorf("unexpected message: %s", err.Message)
	}
	if len(err.Suggestions) == 0 {
		t.Errorf("expected suggestions to be provided")
	}
}

func TestNewInvalidAlertStatusError(t *testing.T) {
	err := NewInvalidAlertStatusError("ACTIVE")

	if err.Code != ErrCodeInvalidAlertStatus {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidAlertStatus, err.Code)
	}
	if !strings.Contains(err.Message, "ACTIVE") {
		t.Errorf("error message should contain the rejected status")
	}
}

func TestNewStoreUnavailableError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewStoreUnavailableError("redis", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be reachable")
	}
	if !strings.Contains(err.Message, "redis") {
		t.Errorf("error message should name the backend")
	}
}

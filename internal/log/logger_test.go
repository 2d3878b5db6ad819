package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/progate/internal/errors"
)

type fakeAPIError struct{ status int }

func (e *fakeAPIError) Error() string   { return fmt.Sprintf("Request failed with status %d", e.status) }
func (e *fakeAPIError) HTTPStatus() int { return e.status }

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: FormatJSON, Output: NewOutput(&buf)}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("expected debug/info to be filtered, got %q", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected warn message to be logged, got %q", buf.String())
	}
}

func TestServiceNameAttached(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = NewOutput(&buf)
	New(cfg).Info("hello")

	entry := decodeLine(t, &buf)
	if entry["service"] != "progate" {
		t.Errorf("expected service=progate, got %v", entry["service"])
	}
}

func TestWithErrorGateError(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	err := errors.NewNoRefreshTokenError()
	logger.WithError(fmt.Errorf("refresh: %w", err)).Error("refresh failed")

	entry := decodeLine(t, buf)
	if entry["error_code"] != "AUTH-001" {
		t.Errorf("expected error_code AUTH-001, got %v", entry["error_code"])
	}
	if entry["error"] != "no refresh token available" {
		t.Errorf("unexpected error attr: %v", entry["error"])
	}
}

func TestWithErrorStatusCoder(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.WithError(&fakeAPIError{status: 401}).Warn("request rejected")

	entry := decodeLine(t, buf)
	if entry["status"] != float64(401) {
		t.Errorf("expected status 401, got %v", entry["status"])
	}
}

func TestWithErrorNil(t *testing.T) {
	logger, _ := newBufferLogger(LevelInfo)
	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestComponent(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)
	logger.Component("gateway").Debug("sending")

	entry := decodeLine(t, buf)
	if entry["component"] != "gateway" {
		t.Errorf("expected component=gateway, got %v", entry["component"])
	}
}

func TestFromSettings(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromSettings("debug", "json", &buf)

	if cfg.Level != LevelDebug || cfg.Format != FormatJSON {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.AddSource {
		t.Error("debug level should add source")
	}

	cfg = FromSettings("", "", nil)
	if cfg.Level != LevelWarn || cfg.Format != FormatText {
		t.Errorf("expected CLI defaults, got %+v", cfg)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"Error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEnabled(t *testing.T) {
	logger, _ := newBufferLogger(LevelWarn)
	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestDefaultLogger(t *testing.T) {
	original := defaultLogger
	defer func() { defaultLogger = original }()

	custom := Discard()
	SetDefaultLogger(custom)
	if DefaultLogger() != custom {
		t.Error("DefaultLogger did not return the configured logger")
	}

	defaultLogger = nil
	if DefaultLogger() == nil {
		t.Fatal("DefaultLogger returned nil when no default was set")
	}
}

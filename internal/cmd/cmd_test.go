package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/progate/internal/exitcode"
	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/metrics"
	"github.com/felixgeelhaar/progate/internal/securestore"
	"github.com/felixgeelhaar/progate/internal/session"
	"github.com/felixgeelhaar/progate/internal/ux"
)

type harness struct {
	t        *testing.T
	store    *securestore.MemoryStore
	server   *httptest.Server
	metrics  *metrics.Metrics
	dir      string
	config   string
	requests atomic.Int32
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeAPI serves the estate API used by the commands.
func (h *harness) fakeAPI(w http.ResponseWriter, r *http.Request) {
	h.requests.Add(1)
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")

	switch {
	case path == "/auth/login":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct-horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token":  signedToken(h.t, time.Now().Add(time.Hour)),
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"user_id":       "u-1",
			"estate_id":     "e-1",
			"estate_name":   "Palm Grove",
			"role":          "guard",
		})

	case path == "/auth/refresh":
		writeJSON(w, http.StatusOK, map[string]string{"access_token": signedToken(h.t, time.Now().Add(2*time.Hour))})

	case path == "/access/verify":
		writeJSON(w, http.StatusOK, map[string]any{
			"valid":         r.URL.Query().Get("code") == "ABC123",
			"visitor_name":  "Ada Obi",
			"resident_name": "Chidi Eze",
		})

	case path == "/access/check-in":
		writeJSON(w, http.StatusOK, map[string]any{"message": "Visitor admitted", "code": r.URL.Query().Get("code")})

	case strings.HasPrefix(path, "/vehicles/check/"):
		writeJSON(w, http.StatusOK, map[string]any{
			"plate_number": strings.TrimPrefix(path, "/vehicles/check/"),
			"status":       "APPROVED",
			"make_model":   "Toyota Camry",
			"owner":        "Flat 4B",
		})

	case path == "/alerts/":
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "a1", "type": "MEDICAL", "description": "Fall in hallway", "resident_name": "Mrs. Bello", "status": "ACTIVE"},
		})

	case strings.HasPrefix(path, "/alerts/") && r.Method == http.MethodPatch:
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": strings.TrimPrefix(path, "/alerts/"), "type": "MEDICAL", "status": body["status"],
		})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
	}
}

func newHarness(t *testing.T, extraConfig ...string) *harness {
	t.Helper()
	t.Setenv("CI", "true")

	h := &harness{t: t, store: securestore.NewMemoryStore(), dir: t.TempDir()}
	t.Setenv("PROGATE_HOME", h.dir)

	h.server = httptest.NewServer(http.HandlerFunc(h.fakeAPI))
	t.Cleanup(h.server.Close)

	_, h.metrics = metrics.NewRegistry()

	cfg := strings.Join(append([]string{
		"api:",
		"  base_url: " + h.server.URL + "/api/v1",
		"  validate_responses: \"off\"",
		"store:",
		"  backend: memory",
	}, extraConfig...), "\n") + "\n"
	h.config = filepath.Join(h.dir, "config.yaml")
	require.NoError(t, os.WriteFile(h.config, []byte(cfg), 0o600))
	return h
}

func (h *harness) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	err := ExecuteContext(context.Background(), append([]string{"--config", h.config}, args...),
		WithStore(h.store),
		WithHTTPClient(h.server.Client()),
		WithMetrics(h.metrics),
		WithEnvFile(filepath.Join(h.dir, "absent.env")),
		WithOutput(&out, &errOut),
	)
	return out.String(), errOut.String(), err
}

func (h *harness) loggedIn() {
	h.t.Helper()
	s := session.New(h.store)
	ctx := context.Background()
	require.NoError(h.t, s.SaveToken(ctx, signedToken(h.t, time.Now().Add(time.Hour))))
	require.NoError(h.t, s.SaveRefreshToken(ctx, "refresh-1"))
	require.NoError(h.t, s.SaveUser(ctx, session.User{ID: "u-1", Role: "guard", EstateID: "e-1"}))
}

func TestLoginStatusLogout(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("auth", "login", "--email", "guard@estate.com", "--password", "correct-horse")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in to Palm Grove")

	out, _, err = h.run("auth", "status", "-o", "json")
	require.NoError(t, err)
	var status struct {
		LoggedIn  bool         `json:"logged_in"`
		User      session.User `json:"user"`
		ExpiresAt *time.Time   `json:"expires_at"`
		Expired   bool         `json:"expired"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "Palm Grove", status.User.EstateName)
	assert.NotNil(t, status.ExpiresAt)
	assert.False(t, status.Expired)
	assert.NotContains(t, out, "refresh-1", "tokens are never printed")

	out, _, err = h.run("auth", "logout", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, _, err = h.run("auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
}

func TestStatusMakesNoRequests(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out, _, err := h.run("auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")
	assert.Zero(t, h.requests.Load())
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("auth", "login", "--email", "guard@estate.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, errOut, ux.MsgInvalidCredentials)
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
}

func TestLoginMissingFieldsSkipsNetwork(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("auth", "login", "--email", "guard@estate.com")
	require.Error(t, err)
	assert.Contains(t, errOut, "Please enter both email and password.")
	assert.Zero(t, h.requests.Load())
}

func TestAuthRefresh(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out, _, err := h.run("auth", "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Access token refreshed")
}

func TestAuthRefreshWithoutRefreshToken(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("auth", "refresh")
	require.Error(t, err)
	assert.Contains(t, errOut, ux.MsgSessionExpired)
	assert.Contains(t, errOut, "progate auth login")
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
	assert.Zero(t, h.requests.Load())
}

func TestCommandsRequireSession(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"access", "verify", "ABC123"},
		{"access", "check-in", "ABC123"},
		{"vehicle", "check", "LAG-123"},
		{"alerts", "list"},
	} {
		_, errOut, err := h.run(args...)
		require.Error(t, err, args)
		assert.Contains(t, errOut, "not logged in", args)
	}
	assert.Zero(t, h.requests.Load())
}

func TestAccessVerify(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out, _, err := h.run("access", "verify", "ABC123")
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")
	assert.Contains(t, out, "Ada Obi")

	out, _, err = h.run("access", "verify", "NOPE", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":false,"visitor_name":"Ada Obi","resident_name":"Chidi Eze"}`, out)

	// verification alone is not activity
	assert.Empty(t, session.New(h.store).Activity(context.Background()))
}

func TestCheckInAndPlateRecordActivity(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out, _, err := h.run("access", "check-in", "ABC123")
	require.NoError(t, err)
	assert.Contains(t, out, "Visitor admitted")

	out, _, err = h.run("vehicle", "check", "LAG-123")
	require.NoError(t, err)
	assert.Contains(t, out, "APPROVED")
	assert.Contains(t, out, "Toyota Camry")

	out, _, err = h.run("activity", "list", "-o", "json")
	require.NoError(t, err)
	var entries []session.ActivityEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Vehicle Checked", entries[0].Title)
	assert.Equal(t, "LAG-123 • APPROVED", entries[0].Subtitle)
	assert.Equal(t, "Visitor Checked In", entries[1].Title)
	assert.Equal(t, "ABC123", entries[1].Subtitle)

	out, _, err = h.run("activity", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Recent activity")
}

func TestAlertsListAndUpdate(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out, _, err := h.run("alerts", "list", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "resident_name: Mrs. Bello")

	out, _, err = h.run("alerts", "update", "a1", "resolved")
	require.NoError(t, err)
	assert.Contains(t, out, "RESOLVED")

	entries := session.New(h.store).Activity(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, "a1 • RESOLVED", entries[0].Subtitle)
}

func TestDashboardAlertSourceRecordsUpdates(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()
	ctx := context.Background()

	store := session.New(h.store)
	client, err := gateway.New(store, gateway.Config{
		BaseURL:    h.server.URL + "/api/v1",
		HTTPClient: h.server.Client(),
	})
	require.NoError(t, err)
	src := recordingAlerts{Client: client, session: store}

	alerts, err := src.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Empty(t, store.Activity(ctx), "listing is not logged")

	alert, err := src.UpdateAlertStatus(ctx, "a1", gateway.AlertResponding)
	require.NoError(t, err)
	assert.Equal(t, gateway.AlertResponding, alert.Status)

	entries := store.Activity(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, session.ActivityAlert, entries[0].Type)
	assert.Equal(t, "a1 • RESPONDING", entries[0].Subtitle)

	_, err = src.UpdateAlertStatus(ctx, "a1", gateway.AlertActive)
	require.Error(t, err)
	assert.Len(t, store.Activity(ctx), 1, "rejected updates are not logged")
}

func TestAlertsUpdateRejectsStatus(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	for _, status := range []string{"ACTIVE", "CLOSED"} {
		_, _, err := h.run("alerts", "update", "a1", status)
		require.Error(t, err, status)
		assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err), status)
	}
	assert.Zero(t, h.requests.Load())
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("settings", "theme", "dark", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark","dark":true}`, out)

	out, _, err = h.run("settings", "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "dark")

	_, errOut, err := h.run("settings", "theme", "purple")
	require.Error(t, err)
	assert.Contains(t, errOut, "light, dark, system")

	out, _, err = h.run("settings", "biometric", "on", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"biometric_enabled":true}`, out)

	_, _, err = h.run("settings", "biometric", "maybe")
	assert.Error(t, err)

	// preferences survive logout
	h.loggedIn()
	_, _, err = h.run("auth", "logout", "--yes")
	require.NoError(t, err)
	s := session.New(h.store)
	assert.Equal(t, session.ThemeDark, s.ThemePreference(context.Background()))
	assert.True(t, s.BiometricEnabled(context.Background()))
}

func TestConfigViewMasksSecrets(t *testing.T) {
	h := newHarness(t, "  passphrase: hunter2")

	out, _, err := h.run("config", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, h.server.URL)

	out, _, err = h.run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, h.config, strings.TrimSpace(out))
}

func TestAPIURLFlagOverridesConfig(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("--api-url", "https://gate.example.com/api/v1", "config", "view", "-o", "json")
	require.NoError(t, err)
	var cfg struct {
		API struct {
			BaseURL string `json:"base_url"`
		} `json:"api"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "https://gate.example.com/api/v1", cfg.API.BaseURL)
}

func TestMissingConfigFile(t *testing.T) {
	var out, errOut bytes.Buffer
	err := ExecuteContext(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "auth", "status"},
		WithStore(securestore.NewMemoryStore()),
		WithOutput(&out, &errOut),
	)
	require.Error(t, err)
	assert.Equal(t, exitcode.ConfigError, exitcode.DetermineExitCode(err))
}

func TestDoctor(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out, _, err := h.run("doctor", "-o", "json")
	require.NoError(t, err)

	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "healthy", report.Status)
	require.Len(t, report.Checks, 3)
	assert.Equal(t, "secure-store", report.Checks[0].Name)
	assert.Equal(t, "api", report.Checks[1].Name)
	assert.Equal(t, "session", report.Checks[2].Name)
	assert.Equal(t, 3, h.store.Len(), "probe key is removed")
}

func TestDoctorLoggedOutIsDegraded(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")
	assert.Contains(t, out, "Overall: degraded")
}

func TestDoctorExpiredSessionFails(t *testing.T) {
	h := newHarness(t)
	s := session.New(h.store)
	require.NoError(t, s.SaveToken(context.Background(), signedToken(t, time.Now().Add(-time.Hour))))

	out, _, err := h.run("doctor")
	require.Error(t, err)
	assert.Contains(t, out, "Overall: unhealthy")
	assert.Equal(t, exitcode.GeneralError, exitcode.DetermineExitCode(err))
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	err := ExecuteContext(context.Background(), []string{"version", "-o", "json"}, WithOutput(&out, &bytes.Buffer{}))
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("teleport")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd(NewApp())

	for _, path := range [][]string{
		{"auth", "login"}, {"auth", "logout"}, {"auth", "refresh"}, {"auth", "status"},
		{"access", "verify"}, {"access", "check-in"},
		{"vehicle", "check"},
		{"alerts", "list"}, {"alerts", "update"}, {"alerts", "watch"},
		{"activity", "list"},
		{"settings", "theme"}, {"settings", "biometric"},
		{"config", "view"}, {"config", "path"},
		{"doctor"}, {"version"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	for _, flag := range []string{"config", "api-url", "format", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

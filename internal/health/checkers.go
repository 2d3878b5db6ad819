package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/securestore"
	"github.com/felixgeelhaar/progate/internal/session"
)

const probeKey = "doctor_probe"

// StoreChecker writes, reads back and deletes a probe key.
type StoreChecker struct {
	Store   securestore.Store
	Backend string
}

// Name implements Checker.
func (c *StoreChecker) Name() string { return "secure-store" }

// Check implements Checker.
func (c *StoreChecker) Check(ctx context.Context) *Result {
	value := fmt.Sprintf("probe-%d", time.Now().UnixNano())

	if err := c.Store.Set(ctx, probeKey, value); err != nil {
		return Unhealthy("cannot write to the secure store").WithDetail("error", err.Error()).WithDetail("backend", c.Backend)
	}
	defer func() { _ = c.Store.Delete(ctx, probeKey) }()

	got, err := c.Store.Get(ctx, probeKey)
	if err != nil {
		return Unhealthy("cannot read from the secure store").WithDetail("error", err.Error()).WithDetail("backend", c.Backend)
	}
	if got != value {
		return Unhealthy("secure store returned a different value").WithDetail("backend", c.Backend)
	}
	return Healthy("read and write ok").WithDetail("backend", c.Backend)
}

// APIChecker verifies the API server answers at all. Any HTTP response
// counts as reachable; 5xx is degraded.
type APIChecker struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Name implements Checker.
func (c *APIChecker) Name() string { return "api" }

// Check implements Checker.
func (c *APIChecker) Check(ctx context.Context) *Result {
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return Unhealthy("invalid API URL").WithDetail("error", err.Error())
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Unhealthy("API unreachable").WithDetail("url", c.BaseURL).WithDetail("error", err.Error())
	}
	resp.Body.Close()

	r := Healthy("API reachable")
	if resp.StatusCode >= 500 {
		r = Degraded("API answered with a server error")
	}
	r.Latency = time.Since(start)
	return r.WithDetail("url", c.BaseURL).WithDetail("status", resp.StatusCode)
}

// SessionChecker inspects the stored session without contacting the server.
type SessionChecker struct {
	Session *session.Store
	Now     func() time.Time
}

// Name implements Checker.
func (c *SessionChecker) Name() string { return "session" }

// Check implements Checker.
func (c *SessionChecker) Check(ctx context.Context) *Result {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	sess := c.Session.Session(ctx)
	if sess == nil {
		if c.Session.RefreshToken(ctx) != "" {
			return Degraded("no access token; it will be refreshed on the next request")
		}
		return Degraded("not logged in")
	}

	r := Healthy("logged in")
	if sess.User != nil {
		r.WithDetail("user", sess.User.ID).WithDetail("estate", sess.User.EstateID)
	} else {
		r = Degraded("logged in, but the stored profile is missing or unreadable")
	}

	if exp, ok := gateway.TokenExpiry(sess.AccessToken); ok {
		r.WithDetail("expires_at", exp.Format(time.RFC3339))
		if !now().Before(exp) {
			if sess.RefreshToken == "" {
				return Unhealthy("access token expired and no refresh token is stored")
			}
			r.Status = StatusDegraded
			r.Message = "access token expired; it will be refreshed on the next request"
		}
	}
	return r
}

// ErrUnhealthy is returned by commands when the overall status is unhealthy.
var ErrUnhealthy = errors.New("one or more health checks failed")

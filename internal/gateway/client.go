// Package gateway is the authenticated client for the ProGate API. It reads
// the access token from the session store, attaches it as a bearer token,
// normalizes error responses and keeps the session fresh.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
	"github.com/felixgeelhaar/progate/internal/log"
	"github.com/felixgeelhaar/progate/internal/metrics"
	"github.com/felixgeelhaar/progate/internal/session"
	"github.com/felixgeelhaar/progate/internal/telemetry"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.progatehq.com/api/v1"

// defaultRefreshTimeout bounds a shared refresh when Config.Timeout is zero.
const defaultRefreshTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is prepended to every endpoint path.
	BaseURL string

	// Timeout bounds each HTTP exchange. Zero means no client-side timeout.
	Timeout time.Duration

	// RefreshOnUnauthorized enables one shared refresh and a single replay
	// when a request comes back 401, plus a refresh before sending when the
	// access token has visibly expired.
	RefreshOnUnauthorized bool

	// ValidateResponses selects response schema validation.
	ValidateResponses ValidationMode

	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client

	// UserAgent is sent on every request when set.
	UserAgent string

	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:               DefaultBaseURL,
		RefreshOnUnauthorized: true,
		ValidateResponses:     ValidationWarn,
	}
}

// Client is the API gateway client. It is safe for concurrent use.
type Client struct {
	baseURL               string
	httpClient            *http.Client
	session               *session.Store
	logger                *log.Logger
	metrics               *metrics.Metrics
	schema                *schemaValidator
	validation            ValidationMode
	refreshOnUnauthorized bool
	refreshGroup          singleflight.Group
	refreshTimeout        time.Duration
	userAgent             string
	now                   func() time.Time
}

// RequestOptions describes one request made through Do.
type RequestOptions struct {
	// Method defaults to GET.
	Method string

	// Header values override the defaults, except Authorization which is
	// always derived from the session.
	Header http.Header

	// Body is sent as JSON. json.RawMessage and []byte are sent as-is.
	Body any
}

// operation names a typed endpoint for metrics, tracing and schema lookup.
type operation struct {
	name     string
	method   string
	template string
}

var (
	opLogin       = operation{"login", http.MethodPost, "/auth/login"}
	opRefresh     = operation{"refresh_token", http.MethodPost, "/auth/refresh"}
	opVerifyCode  = operation{"verify_code", http.MethodPost, "/access/verify"}
	opCheckIn     = operation{"check_in", http.MethodPost, "/access/check-in"}
	opCheckPlate  = operation{"check_plate", http.MethodGet, "/vehicles/check/{plate_number}"}
	opListAlerts  = operation{"list_alerts", http.MethodGet, "/alerts/"}
	opUpdateAlert = operation{"update_alert_status", http.MethodPatch, "/alerts/{alert_id}"}
)

// response is a completed HTTP exchange with a normalized JSON body.
type response struct {
	status int
	body   json.RawMessage
	empty  bool
	token  string // access token the request was sent with
}

// New creates a Client that reads and writes credentials through store.
func New(store *session.Store, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: telemetry.Transport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		}
	}

	mode := cfg.ValidateResponses
	if mode == "" {
		mode = ValidationOff
	}
	var schema *schemaValidator
	if mode != ValidationOff {
		var err error
		schema, err = loadSchema()
		if err != nil {
			return nil, err
		}
	}

	refreshTimeout := cfg.Timeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}

	return &Client{
		baseURL:               strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:            httpClient,
		session:               store,
		logger:                logger.Component("gateway"),
		metrics:               cfg.Metrics,
		schema:                schema,
		validation:            mode,
		refreshOnUnauthorized: cfg.RefreshOnUnauthorized,
		refreshTimeout:        refreshTimeout,
		userAgent:             cfg.UserAgent,
		now:                   time.Now,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the HTTP client used for API calls.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Session returns the session store the client authenticates with.
func (c *Client) Session() *session.Store {
	return c.session
}

// Do sends a request to endpoint (a path relative to the base URL) and
// returns the parsed JSON body. Non-2xx responses yield *APIError,
// transport failures *NetworkError.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	return c.execute(ctx, operation{name: "request", method: method}, endpoint, opts)
}

// call runs a typed operation and decodes the body into out when non-nil.
func (c *Client) call(ctx context.Context, op operation, endpoint string, body, out any) (json.RawMessage, error) {
	ctx, span := telemetry.StartOperationSpan(ctx, op.name)
	defer span.End()

	data, err := c.execute(ctx, op, endpoint, RequestOptions{Method: op.method, Body: body})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.metrics.ObserveRequestError(op.name, "decode")
			decodeErr := gerrors.Wrap(gerrors.ErrCodeDecodeResponse, fmt.Sprintf("failed to decode %s response", op.name), err)
			telemetry.RecordError(span, decodeErr)
			return nil, decodeErr
		}
	}

	telemetry.RecordSuccess(span)
	return data, nil
}

func (c *Client) execute(ctx context.Context, op operation, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	body, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	canRefresh := c.refreshOnUnauthorized && !isAuthEndpoint(endpoint)
	if canRefresh {
		c.refreshIfExpired(ctx)
	}

	resp, err := c.send(ctx, op, endpoint, opts.Header, body)
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusUnauthorized {
		c.logger.Warn("unauthorized response, token might be expired", "endpoint", endpoint)

		if canRefresh && c.refreshFor(ctx, resp.token, endpoint) {
			resp, err = c.send(ctx, op, endpoint, opts.Header, body)
			if err != nil {
				return nil, err
			}
		}
	}

	if resp.status < 200 || resp.status >= 300 {
		apiErr := newAPIError(resp.status, endpoint, resp.body)
		c.metrics.ObserveRequestError(op.name, "api")
		c.logger.WithError(apiErr).Warn("API request failed", "endpoint", endpoint)
		return nil, apiErr
	}

	if err := c.validateResponse(op, resp); err != nil {
		return nil, err
	}
	return resp.body, nil
}

// refreshFor makes a fresh token available after a 401 for a request sent
// with sent, and reports whether the request should be replayed. A token
// replaced meanwhile by another caller's refresh is used as-is.
func (c *Client) refreshFor(ctx context.Context, sent, endpoint string) bool {
	if current := c.session.Token(ctx); current != "" && current != sent {
		c.logger.Debug("token changed while in flight, replaying", "endpoint", endpoint)
		return true
	}
	if c.session.RefreshToken(ctx) == "" {
		return false
	}
	if _, err := c.refresh(ctx, "unauthorized"); err != nil {
		c.logger.WithError(err).Warn("token refresh failed", "endpoint", endpoint)
		return false
	}
	return true
}

func (c *Client) send(ctx context.Context, op operation, endpoint string, header http.Header, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, op.method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, values := range header {
		req.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	token := c.session.Token(ctx)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(op.name, op.method, 0, time.Since(start))
		c.metrics.ObserveRequestError(op.name, "network")
		c.logger.WithError(err).Error("API request error", "endpoint", endpoint)
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(op.name, op.method, resp.StatusCode, time.Since(start))
	if err != nil {
		c.metrics.ObserveRequestError(op.name, "network")
		c.logger.WithError(err).Error("failed to read response body", "endpoint", endpoint)
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}

	c.logger.Debug("API response", "endpoint", endpoint, "method", op.method, "status", resp.StatusCode)

	normalized, empty := normalizeBody(text)
	return &response{status: resp.StatusCode, body: normalized, empty: empty, token: token}, nil
}

func (c *Client) validateResponse(op operation, resp *response) error {
	if c.schema == nil || resp.empty {
		return nil
	}

	err := c.schema.validate(op.method, op.template, resp.status, resp.body)
	if err == nil {
		return nil
	}

	c.metrics.ObserveRequestError(op.name, "schema")
	if c.validation == ValidationStrict {
		return gerrors.NewSchemaViolationError(op.name, err)
	}
	c.logger.WithError(err).Warn("response does not match API schema", "operation", op.name)
	return nil
}

// normalizeBody maps an empty body to {} and a non-JSON body to
// {"message": body}. The second result reports an empty body.
func normalizeBody(text []byte) (json.RawMessage, bool) {
	if len(bytes.TrimSpace(text)) == 0 {
		return json.RawMessage(`{}`), true
	}
	if json.Valid(text) {
		return json.RawMessage(text), false
	}
	wrapped, _ := json.Marshal(map[string]string{"message": string(text)})
	return wrapped, false
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		return data, nil
	}
}

func isAuthEndpoint(endpoint string) bool {
	return strings.HasPrefix(endpoint, "/auth/")
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for progate
type Metrics struct {
	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Gateway request metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	// Session metrics
	TokenRefreshes *prometheus.CounterVec
	Logins         *prometheus.CounterVec

	// Gate operations by outcome (plate status, code validity)
	GateChecks *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progate_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "progate_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progate_api_requests_total",
				Help: "Total number of API requests by operation and HTTP status",
			},
			[]string{"operation", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "progate_api_request_duration_seconds",
				Help:    "API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"operation", "method"},
		),
		RequestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progate_api_request_errors_total",
				Help: "Total number of failed API requests by error type",
			},
			[]string{"operation", "error_type"},
		),

		TokenRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progate_token_refreshes_total",
				Help: "Total number of access token refreshes",
			},
			[]string{"trigger", "success"},
		),
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progate_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"success"},
		),

		GateChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progate_gate_checks_total",
				Help: "Total number of gate checks by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progate_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// ObserveRequest records one completed HTTP exchange. status is 0 for
// requests that never got a response.
func (m *Metrics) ObserveRequest(operation, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(operation, method, label).Inc()
	m.RequestDuration.WithLabelValues(operation, method).Observe(duration.Seconds())
}

// ObserveRequestError records a failed request by error type
// (network, api, decode, schema).
func (m *Metrics) ObserveRequestError(operation, errorType string) {
	if m == nil {
		return
	}
	m.RequestErrors.WithLabelValues(operation, errorType).Inc()
}

// ObserveRefresh records a token refresh. trigger is manual, expired or unauthorized.
func (m *Metrics) ObserveRefresh(trigger string, success bool) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(trigger, strconv.FormatBool(success)).Inc()
}

// ObserveLogin records a login attempt.
func (m *Metrics) ObserveLogin(success bool) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// ObserveGateCheck records the outcome of a verification or plate check.
func (m *Metrics) ObserveGateCheck(kind, outcome string) {
	if m == nil {
		return
	}
	m.GateChecks.WithLabelValues(kind, outcome).Inc()
}

// ObserveCommand records a command execution.
func (m *Metrics) ObserveCommand(command string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// ObserveError records an error by its code.
func (m *Metrics) ObserveError(code string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(code).Inc()
}

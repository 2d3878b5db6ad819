package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/progate/internal/config"
	gerrors "github.com/felixgeelhaar/progate/internal/errors"
	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/log"
	"github.com/felixgeelhaar/progate/internal/metrics"
	"github.com/felixgeelhaar/progate/internal/securestore"
	"github.com/felixgeelhaar/progate/internal/session"
	"github.com/felixgeelhaar/progate/internal/telemetry"
	"github.com/felixgeelhaar/progate/internal/tui"
	"github.com/felixgeelhaar/progate/internal/ux"
	"github.com/felixgeelhaar/progate/internal/version"
)

// Bootstrap levels, set per command in the "bootstrap" annotation.
const (
	annotationBootstrap = "bootstrap"

	// bootstrapNone skips configuration entirely (version).
	bootstrapNone = "none"
	// bootstrapConfig loads configuration and logging only.
	bootstrapConfig = "config"
)

// App holds the dependencies shared by every command. It is built lazily
// in the root PersistentPreRunE so that flags are parsed first.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Metrics *metrics.Metrics
	Store   securestore.Store
	Session *session.Store
	Client  *gateway.Client
	Styles  tui.Styles

	Out io.Writer
	Err io.Writer

	opts options

	span      trace.Span
	started   time.Time
	shutdowns []func(context.Context) error
}

type options struct {
	store      securestore.Store
	httpClient *http.Client
	metrics    *metrics.Metrics
	envFile    string
	out        io.Writer
	err        io.Writer
}

// Option customizes an App.
type Option func(*options)

// WithStore uses s instead of opening the configured backend.
func WithStore(s securestore.Store) Option {
	return func(o *options) { o.store = s }
}

// WithHTTPClient replaces the instrumented HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMetrics records into m instead of the default registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithEnvFile loads path instead of ./.env.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// WithOutput redirects command output and error output.
func WithOutput(out, errOut io.Writer) Option {
	return func(o *options) {
		o.out = out
		o.err = errOut
	}
}

// NewApp creates an App that has not been bootstrapped yet.
func NewApp(opts ...Option) *App {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.out == nil {
		o.out = os.Stdout
	}
	if o.err == nil {
		o.err = os.Stderr
	}
	return &App{
		Out:    o.out,
		Err:    o.err,
		Logger: log.New(log.FromSettings("", "", o.err)),
		Styles: tui.NewStyles(session.ThemeSystem),
		opts:   o,
	}
}

func bootstrapLevel(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if level, ok := c.Annotations[annotationBootstrap]; ok {
			return level
		}
	}
	return ""
}

// bootstrap loads configuration and wires logging, tracing, metrics, the
// secure store and the gateway client for cmd.
func (a *App) bootstrap(cmd *cobra.Command) error {
	a.started = time.Now()
	level := bootstrapLevel(cmd)
	if level == bootstrapNone {
		return nil
	}

	root := cmd.Root()
	cfg, err := config.Load(config.Options{
		ConfigFile: flagString(root.PersistentFlags(), "config"),
		EnvFile:    a.opts.envFile,
		Flags: map[string]*pflag.Flag{
			"api.base_url":  root.PersistentFlags().Lookup("api-url"),
			"output.format": root.PersistentFlags().Lookup("format"),
			"log.level":     root.PersistentFlags().Lookup("log-level"),
		},
	})
	if err != nil {
		return err
	}
	a.Config = cfg

	a.Logger = log.New(log.FromSettings(cfg.Log.Level, cfg.Log.Format, a.Err))
	log.SetDefaultLogger(a.Logger)

	if err := a.initTelemetry(cmd.Context()); err != nil {
		a.Logger.WithError(err).Warn("tracing disabled")
	}

	a.Metrics = a.opts.metrics
	if a.Metrics == nil {
		a.Metrics = metrics.InitDefault()
	}

	ctx, span := telemetry.StartCommandSpan(cmd.Context(), cmd.CommandPath())
	a.span = span
	cmd.SetContext(ctx)

	if level == bootstrapConfig {
		return nil
	}
	return a.openSession(ctx)
}

func (a *App) initTelemetry(ctx context.Context) error {
	if !a.Config.Telemetry.Enabled {
		return nil
	}
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.Enabled = true
	cfg.Endpoint = a.Config.Telemetry.Endpoint
	cfg.Insecure = a.Config.Telemetry.Insecure
	cfg.SampleRate = a.Config.Telemetry.SampleRate
	if env := os.Getenv("PROGATE_ENV"); env != "" {
		cfg.Environment = env
	}

	shutdown, err := telemetry.InitProvider(ctx, cfg)
	if err != nil {
		return err
	}
	a.shutdowns = append(a.shutdowns, shutdown)
	return nil
}

func (a *App) openSession(ctx context.Context) error {
	store := a.opts.store
	if store == nil {
		opened, err := securestore.Open(ctx, a.Config.StoreOptions())
		if err != nil {
			return err
		}
		store = opened
		a.shutdowns = append(a.shutdowns, func(context.Context) error {
			return securestore.Close(opened)
		})
	}
	a.Store = store
	a.Session = session.New(store, session.WithLogger(a.Logger))
	a.Styles = tui.NewStyles(a.Session.ThemePreference(ctx))

	mode, err := gateway.ParseValidationMode(a.Config.API.ValidateResponses)
	if err != nil {
		return gerrors.NewConfigInvalidError(err.Error())
	}

	client, err := gateway.New(a.Session, gateway.Config{
		BaseURL:               a.Config.API.BaseURL,
		Timeout:               a.Config.API.Timeout,
		RefreshOnUnauthorized: a.Config.API.RefreshOnUnauthorized,
		ValidateResponses:     mode,
		HTTPClient:            a.opts.httpClient,
		UserAgent:             version.UserAgent(),
		Logger:                a.Logger,
		Metrics:               a.Metrics,
	})
	if err != nil {
		return err
	}
	a.Client = client
	return nil
}

// finish records the command outcome and releases resources.
func (a *App) finish(cmd *cobra.Command, err error) {
	if a.span != nil {
		if err != nil {
			telemetry.RecordError(a.span, err)
		} else {
			telemetry.RecordSuccess(a.span)
		}
		a.span.End()
	}
	if cmd != nil && !a.started.IsZero() {
		a.Metrics.ObserveCommand(cmd.CommandPath(), err == nil, time.Since(a.started))
	}

	var gateErr *gerrors.GateError
	if errors.As(err, &gateErr) {
		a.Metrics.ObserveError(string(gateErr.Code))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if serr := a.shutdowns[i](ctx); serr != nil {
			a.Logger.WithError(serr).Debug("shutdown failed")
		}
	}
	a.shutdowns = nil
}

// format is the effective output format.
func (a *App) format() string {
	if a.Config != nil && a.Config.Output.Format != "" {
		return a.Config.Output.Format
	}
	return ux.FormatText
}

func (a *App) render(v ux.View) error {
	return ux.Render(a.Out, a.format(), v)
}

// requireSession fails fast when there is nothing to authenticate with.
func (a *App) requireSession(ctx context.Context) error {
	if a.Session.Token(ctx) == "" && a.Session.RefreshToken(ctx) == "" {
		return gerrors.NewNotLoggedInError()
	}
	return nil
}

// displayError carries operator copy for an error whose wording depends on
// the command, such as a failed login.
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }
func (e *displayError) Unwrap() error { return e.err }

// printError writes err for the operator: a single line of copy, then any
// suggestions. The full chain is logged at debug level.
func (a *App) printError(err error) {
	a.Logger.WithError(err).Debug("command failed")

	msg := ux.OperatorMessage(err)
	var de *displayError
	if errors.As(err, &de) {
		msg = de.msg
	}
	fmt.Fprintln(a.Err, a.Styles.Error.Render("✗ "+msg))

	var suggestions []string
	var gateErr *gerrors.GateError
	var withSuggestion *ux.ErrorWithSuggestion
	switch {
	case errors.As(err, &gateErr):
		suggestions = gateErr.Suggestions
	case errors.As(ux.EnhanceError(err), &withSuggestion):
		suggestions = []string{withSuggestion.Suggestion}
	}
	for _, s := range suggestions {
		fmt.Fprintln(a.Err, a.Styles.Muted.Render("  • "+s))
	}
}

func flagString(fs *pflag.FlagSet, name string) string {
	if f := fs.Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}

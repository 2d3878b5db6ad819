package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/health"
	"github.com/felixgeelhaar/progate/internal/metrics"
	"github.com/felixgeelhaar/progate/internal/tui"
	"github.com/felixgeelhaar/progate/internal/ux"
)

func newAlertsCmd(app *App) *cobra.Command {
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "List and respond to panic alerts",
		Long: `List and respond to panic alerts raised by residents.

Examples:
  progate alerts list
  progate alerts update 42 RESPONDING
  progate alerts watch --interval 10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	alertsCmd.AddCommand(
		newAlertsListCmd(app),
		newAlertsUpdateCmd(app),
		newAlertsWatchCmd(app),
	)
	return alertsCmd
}

func newAlertsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the estate's alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			alerts, err := app.Client.ListAlerts(ctx)
			if err != nil {
				return err
			}
			return app.render(ux.View{
				Data: alerts,
				Text: func() string { return tui.RenderAlerts(app.Styles, alerts) },
			})
		},
	}
}

func newAlertsUpdateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <RESPONDING|RESOLVED>",
		Short: "Move an alert to RESPONDING or RESOLVED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			status, err := gateway.ParseAlertStatus(args[1])
			if err != nil {
				return err
			}
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			alert, err := app.Client.UpdateAlertStatus(ctx, args[0], status)
			if err != nil {
				return err
			}
			recordAlertUpdate(ctx, app.Session, args[0], status)
			if alert.ID == "" {
				alert.ID = args[0]
			}
			if alert.Status == "" {
				alert.Status = status
			}
			return app.render(ux.View{
				Data: alert,
				Text: func() string { return tui.RenderAlert(app.Styles, *alert) },
			})
		},
	}
}

func newAlertsWatchCmd(app *App) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live alerts dashboard",
		Long: `Open the live alerts dashboard.

Alerts are reloaded every --interval. When metrics.addr is set, Prometheus
metrics (/metrics) and device health (/healthz) are served on it while
the dashboard runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(cmd.Context()); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, gctx := errgroup.WithContext(ctx)

			if addr := app.Config.Metrics.Addr; addr != "" {
				g.Go(func() error {
					app.Logger.Info("serving metrics", "addr", addr)
					checks := health.NewManager(app.healthCheckers()...)
					return metrics.Serve(gctx, addr, metrics.Handler(),
						metrics.Route{Pattern: "/healthz", Handler: health.Handler(checks)})
				})
			}
			g.Go(func() error {
				defer cancel()
				src := recordingAlerts{Client: app.Client, session: app.Session}
				return tui.RunAlertsDashboard(gctx, src, app.Styles, interval)
			})
			return g.Wait()
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", tui.DefaultPollInterval, "how often to reload alerts")
	return cmd
}

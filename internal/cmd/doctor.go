package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/progate/internal/health"
	"github.com/felixgeelhaar/progate/internal/ux"
)

func newDoctorCmd(app *App) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the secure store, API and session",
		Long: `Check that this device can work as a gate terminal.

Runs the checks in parallel:
  secure-store  write, read and delete a probe key
  api           reach the API server
  session       inspect the stored session and token expiry

Exits non-zero only when a check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := health.NewManager(app.healthCheckers()...).WithTimeout(timeout)

			report := manager.Check(cmd.Context())
			err := app.render(ux.View{
				Data: report,
				Text: func() string { return renderReport(app, report) },
			})
			if err != nil {
				return err
			}
			if report.Status == health.StatusUnhealthy {
				return health.ErrUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", health.DefaultTimeout, "timeout for each check")
	return cmd
}

func renderReport(app *App, report health.Report) string {
	var b strings.Builder
	for _, c := range report.Checks {
		var mark string
		switch c.Status {
		case health.StatusHealthy:
			mark = app.Styles.Success.Render("✓")
		case health.StatusDegraded:
			mark = app.Styles.Warning.Render("!")
		default:
			mark = app.Styles.Error.Render("✗")
		}
		fmt.Fprintf(&b, "%s %-13s %s %s\n", mark, app.Styles.Label.Render(c.Name), c.Message,
			app.Styles.Muted.Render(c.Latency.Round(time.Millisecond).String()))
	}
	fmt.Fprintf(&b, "\nOverall: %s", report.Status)
	return b.String()
}

// healthCheckers returns the device checks shared by doctor and /healthz.
func (a *App) healthCheckers() []health.Checker {
	return []health.Checker{
		&health.StoreChecker{Store: a.Store, Backend: a.Config.Store.Backend},
		&health.APIChecker{BaseURL: a.Client.BaseURL(), HTTPClient: a.Client.HTTPClient()},
		&health.SessionChecker{Session: a.Session},
	}
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "progate",
		Short: "ProGate Guard: gate security for residential estates",
		Long: `progate is the gate-side client for ProGate estates.

Guards use it to verify visitor access codes, check visitors in, look up
vehicle plates and respond to residents' panic alerts. Credentials are kept
in an encrypted local store and refreshed automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.bootstrap(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.progate/config.yaml)")
	flags.String("api-url", "", "API base URL (overrides api.base_url)")
	flags.StringP("format", "o", "", "output format: text, json or yaml")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newAuthCmd(app),
		newAccessCmd(app),
		newVehicleCmd(app),
		newAlertsCmd(app),
		newActivityCmd(app),
		newSettingsCmd(app),
		newConfigCmd(app),
		newDoctorCmd(app),
		newVersionCmd(app),
	)
	return root
}

// ExecuteContext runs the CLI with the given options and prints any error
// for the operator. The returned error is used for the exit code.
func ExecuteContext(ctx context.Context, args []string, opts ...Option) error {
	app := NewApp(opts...)
	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	cmd, err := root.ExecuteContextC(ctx)
	app.finish(cmd, err)
	if err != nil {
		app.printError(err)
	}
	return err
}

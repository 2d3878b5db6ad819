package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/progate/internal/tui"
	"github.com/felixgeelhaar/progate/internal/ux"
)

func newActivityCmd(app *App) *cobra.Command {
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent gate activity on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	activityCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the most recent check-ins, plate checks and alert updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := app.Session.Activity(cmd.Context())
			return app.render(ux.View{
				Data: entries,
				Text: func() string { return tui.RenderActivity(app.Styles, entries) },
			})
		},
	})

	return activityCmd
}

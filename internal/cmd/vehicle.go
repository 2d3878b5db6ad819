package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/progate/internal/tui"
	"github.com/felixgeelhaar/progate/internal/ux"
)

func newVehicleCmd(app *App) *cobra.Command {
	vehicleCmd := &cobra.Command{
		Use:     "vehicle",
		Aliases: []string{"plate"},
		Short:   "Look up vehicles at the gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	vehicleCmd.AddCommand(&cobra.Command{
		Use:   "check <plate>",
		Short: "Check a plate number against the estate register",
		Long: `Check a plate number against the estate register.

The gate decision is APPROVED, DENIED or UNKNOWN.

Examples:
  progate vehicle check LAG-123XY`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			rec, err := app.Client.CheckPlate(ctx, args[0])
			if err != nil {
				return err
			}
			recordPlateCheck(ctx, app.Session, rec)
			return app.render(ux.View{
				Data: rec,
				Text: func() string { return tui.RenderVehicle(app.Styles, rec) },
			})
		},
	})

	return vehicleCmd
}

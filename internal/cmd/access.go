package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/progate/internal/tui"
	"github.com/felixgeelhaar/progate/internal/ux"
)

func newAccessCmd(app *App) *cobra.Command {
	accessCmd := &cobra.Command{
		Use:   "access",
		Short: "Verify visitor access codes and check visitors in",
		Long: `Verify visitor access codes and check visitors in.

Examples:
  progate access verify ABC123
  progate access check-in ABC123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	accessCmd.AddCommand(&cobra.Command{
		Use:   "verify <code>",
		Short: "Check whether an access code is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			res, err := app.Client.VerifyCode(ctx, args[0])
			if err != nil {
				return err
			}
			return app.render(ux.View{
				Data: res,
				Text: func() string { return tui.RenderVerification(app.Styles, args[0], res) },
			})
		},
	})

	accessCmd.AddCommand(&cobra.Command{
		Use:   "check-in <code>",
		Short: "Admit the visitor holding an access code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			res, err := app.Client.CheckIn(ctx, args[0])
			if err != nil {
				return err
			}
			recordCheckIn(ctx, app.Session, args[0])
			return app.render(ux.View{
				Data: res.Raw,
				Text: func() string { return tui.RenderCheckIn(app.Styles, args[0], res) },
			})
		},
	})

	return accessCmd
}

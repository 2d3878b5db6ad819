package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/tui"
	"github.com/felixgeelhaar/progate/internal/ux"
)

func newAuthCmd(app *App) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the guard session",
		Long: `Manage the guard session.

Tokens and the guard profile are kept in the secure store configured by
store.backend (an encrypted file in ~/.progate by default).

Examples:
  progate auth login --email guard@estate.com
  progate auth status
  progate auth refresh
  progate auth logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	authCmd.AddCommand(
		newAuthLoginCmd(app),
		newAuthLogoutCmd(app),
		newAuthRefreshCmd(app),
		newAuthStatusCmd(app),
	)
	return authCmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	var creds tui.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Long: `Log in with email and password.

Missing values are asked for interactively when running in a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if creds.Missing() && tui.ShouldPrompt() {
				if err := tui.PromptForCredentials(&creds); err != nil {
					return err
				}
			}

			if _, err := app.Client.Login(ctx, creds.Email, creds.Password); err != nil {
				return &displayError{msg: ux.LoginMessage(err), err: err}
			}

			view := sessionView(cmd, app)
			return app.render(ux.View{
				Data: view,
				Text: func() string {
					welcome := "Logged in"
					if view.User != nil && view.User.EstateName != "" {
						welcome += " to " + view.User.EstateName
					}
					return app.Styles.Success.Render("✓ " + welcome)
				},
			})
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "guard email address")
	cmd.Flags().StringVar(&creds.Password, "password", "", "guard password (prompted when omitted)")
	return cmd
}

func newAuthLogoutCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove stored credentials",
		Long: `Log out and remove stored credentials.

The theme and biometric preferences are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if app.Session.Session(ctx) == nil && app.Session.RefreshToken(ctx) == "" {
				fmt.Fprintln(app.Out, app.Styles.Muted.Render("Not logged in."))
				return nil
			}

			if !yes && tui.ShouldPrompt() {
				ok, err := tui.PromptForConfirmation("Log out of ProGate?", true)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			if err := app.Client.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, app.Styles.Success.Render("✓ Logged out"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newAuthRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.Client.RefreshToken(cmd.Context()); err != nil {
				return err
			}

			view := sessionView(cmd, app)
			return app.render(ux.View{
				Data: view,
				Text: func() string {
					msg := "✓ Access token refreshed"
					if view.ExpiresAt != nil {
						msg += ", valid until " + view.ExpiresAt.Local().Format(time.Kitchen)
					}
					return app.Styles.Success.Render(msg)
				},
			})
		},
	}
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := sessionView(cmd, app)
			return app.render(ux.View{
				Data: view,
				Text: func() string { return tui.RenderSession(app.Styles, view) },
			})
		},
	}
}

// sessionView reads the local session state.
func sessionView(cmd *cobra.Command, app *App) tui.SessionView {
	ctx := cmd.Context()
	view := tui.SessionView{BaseURL: app.Client.BaseURL()}

	sess := app.Session.Session(ctx)
	if sess == nil {
		return view
	}
	view.LoggedIn = true
	view.User = sess.User
	if exp, ok := gateway.TokenExpiry(sess.AccessToken); ok {
		view.ExpiresAt = &exp
		view.Expired = gateway.TokenExpired(sess.AccessToken, time.Now())
	}
	return view
}

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
	"github.com/felixgeelhaar/progate/internal/session"
	"github.com/felixgeelhaar/progate/internal/tui"
	"github.com/felixgeelhaar/progate/internal/ux"
)

type themeSetting struct {
	Theme session.ThemeMode `json:"theme"`
	Dark  bool              `json:"dark"`
}

type biometricSetting struct {
	Enabled bool `json:"biometric_enabled"`
}

func newSettingsCmd(app *App) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change device preferences",
		Long: `Show or change device preferences.

Preferences survive logout.

Examples:
  progate settings theme dark
  progate settings biometric on`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	settingsCmd.AddCommand(newThemeCmd(app), newBiometricCmd(app))
	return settingsCmd
}

func newThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|system]",
		Short:     "Show or set the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(session.ThemeLight), string(session.ThemeDark), string(session.ThemeSystem)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mode := app.Session.ThemePreference(ctx)

			if len(args) == 1 {
				parsed, ok := session.ParseThemeMode(strings.ToLower(args[0]))
				if !ok {
					return gerrors.NewInvalidInputError(fmt.Sprintf("unknown theme %q", args[0])).
						WithSuggestion("Use one of: light, dark, system")
				}
				if err := app.Session.SaveThemePreference(ctx, parsed); err != nil {
					return err
				}
				mode = parsed
				app.Styles = tui.NewStyles(mode)
			}

			setting := themeSetting{Theme: mode, Dark: app.Styles.Dark}
			return app.render(ux.View{
				Data: setting,
				Text: func() string {
					return app.Styles.Label.Render("Theme: ") + app.Styles.Title.Render(string(mode))
				},
			})
		},
	}
}

func newBiometricCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "biometric [on|off]",
		Short: "Show or set the biometric unlock preference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			enabled := app.Session.BiometricEnabled(ctx)

			if len(args) == 1 {
				parsed, err := parseSwitch(args[0])
				if err != nil {
					return err
				}
				if err := app.Session.SaveBiometricEnabled(ctx, parsed); err != nil {
					return err
				}
				enabled = parsed
			}

			return app.render(ux.View{
				Data: biometricSetting{Enabled: enabled},
				Text: func() string {
					state := app.Styles.Muted.Render("off")
					if enabled {
						state = app.Styles.Success.Render("on")
					}
					return app.Styles.Label.Render("Biometric unlock: ") + state
				},
			})
		},
	}
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "enable", "enabled", "yes":
		return true, nil
	case "off", "disable", "disabled", "no":
		return false, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	return false, gerrors.NewInvalidInputError(fmt.Sprintf("expected on or off, got %q", s))
}

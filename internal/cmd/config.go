package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/progate/internal/config"
	"github.com/felixgeelhaar/progate/internal/ux"
)

func newConfigCmd(app *App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		Long: `Inspect the effective configuration.

Values come from flags, PROGATE_* environment variables (dots become
underscores, e.g. PROGATE_API_BASE_URL), the config file and defaults,
in that order.

Examples:
  progate config view
  progate config view -o json
  progate config path`,
		Annotations: map[string]string{annotationBootstrap: bootstrapConfig},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "view",
		Short: "Display the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			redacted := app.Config.Redacted()
			return app.render(ux.View{
				Data: redacted,
				Text: func() string {
					data, err := yaml.Marshal(redacted)
					if err != nil {
						return fmt.Sprintf("failed to render configuration: %v", err)
					}
					return string(data)
				},
			})
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.Config.File()
			if path == "" {
				path = filepath.Join(config.Dir(), "config.yaml")
			}
			fmt.Fprintln(app.Out, path)
			return nil
		},
	})

	return configCmd
}

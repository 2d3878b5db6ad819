package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/progate/internal/ux"
	"github.com/felixgeelhaar/progate/internal/version"
)

func newVersionCmd(app *App) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationBootstrap: bootstrapNone},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			format := flagString(cmd.Root().PersistentFlags(), "format")
			if format == "" {
				format = ux.FormatText
			}

			return ux.Render(app.Out, format, ux.View{
				Data: info,
				Text: func() string {
					if verbose {
						return info.String()
					}
					return fmt.Sprintf("progate %s", info.Short())
				},
			})
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gorulesync/internal/configloader"
	"github.com/yaklabco/gorulesync/internal/ui/pretty"
)

func newSettingsCommand(globals *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print the effective settings",
		Long: `Print the settings after applying the user settings file, --settings
and GORULESYNC_* environment variables. The API token is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := configloader.LoadSettings(configloader.SettingsOptions{
				ExplicitPath: globals.settingsPath,
			})
			if err != nil {
				return withExitCode(ExitConfigError, fmt.Errorf("load settings: %w", err))
			}

			content, err := loaded.Settings.ToYAML()
			if err != nil {
				return fmt.Errorf("encode settings: %w", err)
			}

			out := cmd.OutOrStdout()
			styles := pretty.NewStyles(pretty.IsColorEnabled(globals.color, out))

			source := "defaults"
			if loaded.LoadedFrom != "" {
				source = loaded.LoadedFrom
			}
			fmt.Fprintln(out, styles.Dim.Render("# source: "+source))

			token := "not set (" + configloader.EnvVarName("api.token") + ")"
			if loaded.Settings.HasCredentials() {
				token = "set"
			}
			fmt.Fprintln(out, styles.Dim.Render("# api token: "+token))

			_, err = out.Write(content)
			return err
		},
	}
}

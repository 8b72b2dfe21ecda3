// Package cli provides the Cobra command structure for gorulesync.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	debug        bool
	settingsPath string
	root         string
	color        string
	version      string

	// provider overrides the rule source built from settings.
	provider rulesource.Provider
}

// Option configures the root command.
type Option func(*globalFlags)

// WithProvider replaces the remote rule source, mainly for tests.
func WithProvider(provider rulesource.Provider) Option {
	return func(g *globalFlags) {
		g.provider = provider
	}
}

// NewRootCommand creates the root gorulesync command with all subcommands.
func NewRootCommand(info BuildInfo, opts ...Option) *cobra.Command {
	globals := &globalFlags{version: info.Version}
	for _, opt := range opts {
		opt(globals)
	}

	rootCmd := &cobra.Command{
		Use:   "gorulesync",
		Short: "Keep project rulesets in sync and annotate source files",
		Long: `gorulesync fetches the rulesets selected in a project's .rulesync.yml
from a remote rule service, keeps them fresh by polling, and annotates
source files with the violations the service reports.

Run "analyze" for a one-shot report, or "watch" to re-annotate a file
every time it is saved.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			_ = godotenv.Load()
			if globals.debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&globals.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globals.settingsPath, "settings", "", "path to settings file")
	rootCmd.PersistentFlags().StringVar(&globals.root, "root", "",
		"project root (default: nearest directory with .rulesync.yml or a VCS root)")
	rootCmd.PersistentFlags().StringVar(&globals.color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.AddCommand(newAnalyzeCommand(globals))
	rootCmd.AddCommand(newWatchCommand(globals))
	rootCmd.AddCommand(newRulesCommand(globals))
	rootCmd.AddCommand(newValidateCommand(globals))
	rootCmd.AddCommand(newInitCommand(globals))
	rootCmd.AddCommand(newSettingsCommand(globals))
	rootCmd.AddCommand(newExitCodesCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	helpFormatter := NewHelpFormatter(globals.color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}

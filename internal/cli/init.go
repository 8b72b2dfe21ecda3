package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gorulesync/internal/configloader"
	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/fsutil"
)

// initFlags holds the flags for the init command.
type initFlags struct {
	force    bool
	format   string
	rulesets []string
}

func newInitCommand(globals *globalFlags) *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .rulesync.yml project file",
		Long: `Create a .rulesync.yml file at the project root selecting the rulesets
to apply. Without --ruleset the file starts with an empty selection.

Examples:
  gorulesync init
  gorulesync init --ruleset python-security --ruleset js-security
  gorulesync init --format json --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(commandContext(cmd), globals, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing project file")
	cmd.Flags().StringVar(&flags.format, "format", config.TemplateFormatYAML, "file syntax: yaml or json")
	cmd.Flags().StringSliceVar(&flags.rulesets, "ruleset", nil, "ruleset names to select")

	return cmd
}

func runInit(ctx context.Context, globals *globalFlags, flags *initFlags) error {
	logger := logging.NewInteractive()

	if flags.format != config.TemplateFormatYAML && flags.format != config.TemplateFormatJSON {
		return withExitCode(ExitInvalidUsage, fmt.Errorf("invalid format %q: must be yaml or json", flags.format))
	}

	accepted, rejected := configloader.FilterNames(flags.rulesets)
	if len(rejected) > 0 {
		return withExitCode(ExitInvalidUsage, fmt.Errorf("invalid ruleset names: %v", rejected))
	}

	root := globals.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		root, err = configloader.FindProjectRoot(ctx, wd)
		if err != nil {
			return fmt.Errorf("find project root: %w", err)
		}
	}
	path := filepath.Join(root, config.ProjectFileName)

	if _, err := os.Stat(path); err == nil {
		if !flags.force {
			return fmt.Errorf("file %q already exists; use --force to overwrite", path)
		}
		logger.Warn("overwriting existing file", logging.FieldPath, path)
	}

	content, err := config.GenerateTemplate(config.TemplateOptions{
		Format:   flags.format,
		Selected: accepted,
	})
	if err != nil {
		return fmt.Errorf("generate template: %w", err)
	}

	if err := fsutil.WriteAtomic(ctx, path, content, fsutil.DefaultFileMode); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}

	logger.Info("created project file", logging.FieldPath, path, logging.FieldRulesets, len(accepted))
	logger.Info("run 'gorulesync rules' to list the selected rules")

	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gorulesync/internal/configloader"
	"github.com/yaklabco/gorulesync/internal/ui/pretty"
)

// ErrInvalidProjectFile is returned when the project file cannot be used.
var ErrInvalidProjectFile = errors.New("invalid project file")

func newValidateCommand(globals *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the project ruleset file",
		Long: `Validate reports which ruleset names of .rulesync.yml will be requested
from the rule service and which entries are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, globals, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "project file to check (default: .rulesync.yml at the project root)")

	return cmd
}

func runValidate(cmd *cobra.Command, globals *globalFlags, file string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(globals.color, out))

	path := file
	if path == "" {
		root := globals.root
		if root == "" {
			var err error
			root, err = configloader.FindProjectRoot(ctx, "")
			if err != nil {
				return fmt.Errorf("find project root: %w", err)
			}
		}
		resolver := configloader.NewResolver(root)
		found, ok := resolver.Find()
		if !ok {
			return withExitCode(ExitConfigError,
				fmt.Errorf("%w: %s not found", ErrInvalidProjectFile, resolver.Path()))
		}
		path = found
	}

	result := configloader.ValidateProjectFile(path)

	fmt.Fprintln(out, styles.FilePath.Render(path))
	for _, name := range result.Accepted {
		fmt.Fprintf(out, "  %s %s\n", styles.Success.Render("✓"), name)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "  %s %s\n", styles.Warning.Render("!"), w.Error())
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  %s %s\n", styles.Failure.Render("✗"), e.Error())
	}

	if !result.Valid() {
		return withExitCode(ExitConfigError, ErrInvalidProjectFile)
	}

	if len(result.Accepted) == 0 {
		fmt.Fprintln(out, styles.Dim.Render("  no rulesets selected"))
	}

	return nil
}

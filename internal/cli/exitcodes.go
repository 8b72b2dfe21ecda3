package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gorulesync/internal/ui/pretty"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
	"github.com/yaklabco/gorulesync/pkg/runner"
)

// ErrIssuesFound is returned when a run reports annotations that fail it.
var ErrIssuesFound = errors.New("issues found")

// Exit codes for gorulesync.
const (
	// ExitSuccess indicates successful execution with no failing issues.
	ExitSuccess = 0

	// ExitIssues indicates critical or error annotations were found.
	ExitIssues = 1

	// ExitWarnings indicates warnings were found in strict mode.
	ExitWarnings = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates invalid settings or project files.
	ExitConfigError = 65

	// ExitUnavailable indicates the rule source is not configured or unreachable.
	ExitUnavailable = 69

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70
)

// exitCodeDescriptions documents every exit code, in order.
//
//nolint:gochecknoglobals // Read-only lookup table.
var exitCodeDescriptions = []struct {
	code        int
	description string
}{
	{ExitSuccess, "no critical or error annotations"},
	{ExitIssues, "critical or error annotations found"},
	{ExitWarnings, "warnings found with --strict"},
	{ExitInvalidUsage, "invalid command-line usage"},
	{ExitConfigError, "invalid settings or project file"},
	{ExitUnavailable, "rule source not configured or unreachable"},
	{ExitInternalError, "internal error"},
}

// ExitCodeFromResult determines the exit code of an analysis run.
func ExitCodeFromResult(result *runner.Result, strict bool) int {
	if result.HasFailures() {
		return ExitIssues
	}
	if strict && result.HasIssues() {
		return ExitWarnings
	}
	return ExitSuccess
}

// ExitCodeFromError maps a command error to an exit code.
func ExitCodeFromError(err error) int {
	var codeErr *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &codeErr):
		return codeErr.code
	case errors.Is(err, ErrIssuesFound):
		return ExitIssues
	case errors.Is(err, rulesource.ErrNoCredentials), errors.Is(err, rulesource.ErrNoEndpoint):
		return ExitUnavailable
	default:
		return ExitInternalError
	}
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func newExitCodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exitcodes",
		Short: "Describe the exit codes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			styles := pretty.NewStyles(pretty.IsColorEnabled(colorFlag(cmd), cmd.OutOrStdout()))
			for _, entry := range exitCodeDescriptions {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n",
					styles.Command.Render(fmt.Sprintf("%3d", entry.code)),
					entry.description,
				)
			}
		},
	}
}

// colorFlag returns the --color value, defaulting to auto.
func colorFlag(cmd *cobra.Command) string {
	color, err := cmd.Flags().GetString("color")
	if err != nil || color == "" {
		return "auto"
	}
	return color
}

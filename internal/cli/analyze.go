package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/reporter"
	"github.com/yaklabco/gorulesync/pkg/runner"
)

type analyzeFlags struct {
	format         string
	ruleFormat     string
	exclude        []string
	jobs           int
	fix            bool
	backup         bool
	followSymlinks bool
	strict         bool
	noContext      bool
	compact        bool
}

func newAnalyzeCommand(globals *globalFlags) *cobra.Command {
	flags := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Annotate source files with rule violations",
		Long:  analyzeLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, globals, flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json, sarif, summary")
	cmd.Flags().StringVar(&flags.ruleFormat, "rule-format", "",
		"rule identifier format in output: name, ruleset, combined (default from settings)")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "additional glob patterns to skip")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().BoolVar(&flags.fix, "fix", false, "apply the first fix of each annotation")
	cmd.Flags().BoolVar(&flags.backup, "backup", false, "keep a backup of files changed by --fix")
	cmd.Flags().BoolVar(&flags.followSymlinks, "follow-symlinks", false, "follow symlinked directories")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail on warnings too")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "use compact output")

	return cmd
}

const analyzeLongDescription = `Analyze source files against the project's rulesets.

Rules are fetched once, then every file with a recognized language is sent
to the rule service. By default the current directory is analyzed.

Examples:
  gorulesync analyze                     # Analyze current directory
  gorulesync analyze src/app.py          # Analyze one file
  gorulesync analyze --fix --backup      # Apply fixes, keeping backups
  gorulesync analyze --format sarif      # Emit SARIF for code scanning
  gorulesync analyze --format summary    # Per-rule and per-file tables`

func runAnalyze(cmd *cobra.Command, args []string, globals *globalFlags, flags *analyzeFlags) error {
	ctx := commandContext(cmd)

	format, err := reporter.ParseFormat(flags.format)
	if err != nil {
		return withExitCode(ExitInvalidUsage, err)
	}

	env, err := loadEnvironment(ctx, globals)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	ruleFormat := env.settings.RuleFormat
	if flags.ruleFormat != "" {
		ruleFormat = config.RuleFormat(flags.ruleFormat)
	}

	cache, err := env.loadRules(ctx)
	if err != nil {
		return err
	}
	defer cache.Close()

	source, err := env.source()
	if err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	runOpts := runner.Options{
		Paths:          args,
		WorkingDir:     workDir,
		ExcludeGlobs:   append(runner.DefaultExcludeGlobs(), flags.exclude...),
		FollowSymlinks: flags.followSymlinks,
		Jobs:           flags.jobs,
		Fix:            flags.fix,
		Backup:         flags.backup,
		LogOutput:      env.settings.Analysis.LogOutput,
	}

	env.logger.Debug("starting analysis",
		"paths", runOpts.Paths,
		"jobs", runOpts.Jobs,
		"fix", runOpts.Fix,
	)

	result, err := runner.New(cache, source, env.logger).Run(ctx, runOpts)
	if err != nil {
		return errors.Join(errors.New("analysis failed"), err)
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		ErrorWriter: cmd.ErrOrStderr(),
		Format:      format,
		Color:       globals.color,
		ShowContext: !flags.noContext,
		ShowSummary: true,
		GroupByFile: true,
		Compact:     flags.compact,
		RuleFormat:  ruleFormat,
		WorkingDir:  workDir,
		ToolVersion: globals.version,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	if _, err := rep.Report(ctx, result); err != nil {
		env.logger.Error("report failed", logging.FieldError, err)
		return fmt.Errorf("report results: %w", err)
	}

	if code := ExitCodeFromResult(result, flags.strict); code != ExitSuccess {
		return withExitCode(code, ErrIssuesFound)
	}

	return nil
}

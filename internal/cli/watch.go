package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/gorulesync/internal/configloader"
	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/reporter"
	"github.com/yaklabco/gorulesync/pkg/runner"
	"github.com/yaklabco/gorulesync/pkg/session"
)

type watchFlags struct {
	ruleFormat string
	noContext  bool
}

func newWatchCommand(globals *globalFlags) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-annotate a file every time it changes",
		Long: `Watch keeps the project's rules fresh by polling the rule service and
re-analyzes FILE after each save, once edits have settled for the debounce
period. Changes to .rulesync.yml are picked up immediately.

Press Ctrl+C to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], globals, flags)
		},
	}

	cmd.Flags().StringVar(&flags.ruleFormat, "rule-format", "",
		"rule identifier format in output: name, ruleset, combined (default from settings)")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")

	return cmd
}

func runWatch(cmd *cobra.Command, path string, globals *globalFlags, flags *watchFlags) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := loadEnvironment(ctx, globals)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	ctx = logging.WithLogger(ctx, env.logger)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	source, err := env.source()
	if err != nil {
		return err
	}

	ruleFormat := env.settings.RuleFormat
	if flags.ruleFormat != "" {
		ruleFormat = config.RuleFormat(flags.ruleFormat)
	}

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		ErrorWriter: cmd.ErrOrStderr(),
		Format:      reporter.FormatText,
		Color:       globals.color,
		ShowContext: !flags.noContext,
		ShowSummary: true,
		GroupByFile: true,
		RuleFormat:  ruleFormat,
		WorkingDir:  filepath.Dir(absPath),
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	cache := env.newCache()
	cache.Start(ctx)
	defer cache.Close()

	doc := session.NewTextDocument(absPath, string(content))
	sess := session.New(doc, cache, source,
		session.WithDebounce(env.settings.Session.Debounce),
		session.WithReadyTimeout(env.settings.Cache.ReadyTimeout),
		session.WithLogger(env.logger),
		session.WithLogOutput(env.settings.Analysis.LogOutput),
	)
	defer sess.Close()

	var reportMu sync.Mutex
	unsubscribe := sess.Subscribe(func(session.TagsChanged) {
		reportMu.Lock()
		defer reportMu.Unlock()

		result := runner.NewResult(runner.FileOutcome{
			Path:        absPath,
			Language:    sess.Language(),
			Content:     doc.Text(),
			Annotations: sess.Annotations(),
		})
		if _, err := rep.Report(ctx, result); err != nil {
			env.logger.Warn("report failed", logging.FieldError, err)
		}
	})
	defer unsubscribe()

	env.logger.Info("watching", logging.FieldPath, path, logging.FieldLanguage, sess.Language())
	sess.NotifyEdit()

	group, groupCtx := errgroup.WithContext(ctx)
	if env.settings.Cache.WatchConfig {
		group.Go(func() error {
			return env.resolver.Watch(groupCtx, cache.Poke)
		})
	}
	group.Go(func() error {
		return configloader.WatchFile(groupCtx, absPath, func() {
			reloadDocument(groupCtx, doc, sess)
		})
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// reloadDocument replaces the document text with the file content and
// schedules an analysis. A file that vanished mid-save is ignored until it
// reappears.
func reloadDocument(ctx context.Context, doc *session.TextDocument, sess *session.Session) {
	content, err := os.ReadFile(doc.Path())
	if err != nil {
		logging.FromContext(ctx).Debug("document unreadable", logging.FieldPath, doc.Path(), logging.FieldError, err)
		return
	}
	if string(content) == doc.Text() {
		return
	}
	doc.SetText(string(content))
	sess.NotifyEdit()
}

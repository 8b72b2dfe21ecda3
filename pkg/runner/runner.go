package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/fix"
	"github.com/yaklabco/gorulesync/pkg/fsutil"
	"github.com/yaklabco/gorulesync/pkg/langdetect"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
	"github.com/yaklabco/gorulesync/pkg/session"
)

// Runner analyzes files against the rules of a rule cache.
type Runner struct {
	rules  session.RuleProvider
	source rulesource.Source
	logger *log.Logger
}

// New returns a Runner. A nil logger uses logging.Default().
func New(rules session.RuleProvider, source rulesource.Source, logger *log.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{rules: rules, source: source, logger: logger}
}

// Run discovers files under opts.Paths and analyzes them with a pool of
// opts.Jobs workers. Per-file failures are recorded in the outcome; the
// returned error is only set for discovery failures and cancellation.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files: make([]FileOutcome, 0, len(files)),
		Stats: newStats(),
	}
	result.Stats.FilesDiscovered = len(files)

	if len(files) == 0 {
		return result, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, len(files))

	workCh := make(chan string)
	outCh := make(chan FileOutcome)

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range workCh {
				select {
				case <-ctx.Done():
					return
				case outCh <- r.processFile(ctx, path, opts):
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, path := range files {
			select {
			case <-ctx.Done():
				return
			case workCh <- path:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	outcomes := make(map[string]FileOutcome, len(files))
	for outcome := range outCh {
		outcomes[outcome.Path] = outcome
	}

	for _, path := range files {
		if outcome, ok := outcomes[path]; ok {
			result.accumulate(outcome)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run cancelled: %w", err)
	}

	return result, nil
}

// processFile analyzes one file through a short-lived session.
func (r *Runner) processFile(ctx context.Context, path string, opts Options) FileOutcome {
	outcome := FileOutcome{Path: path}
	logger := r.logger.With(logging.FieldPath, path)

	content, snap, err := fsutil.Read(ctx, path)
	if err != nil {
		outcome.Error = err
		return outcome
	}

	text := string(content)
	outcome.Content = text
	outcome.Language = langdetect.FromFilename(path, content)

	sess := session.New(session.NewTextDocument(path, text), r.rules, r.source,
		session.WithLanguage(outcome.Language),
		session.WithLogger(r.logger),
		session.WithLogOutput(opts.LogOutput),
	)
	defer sess.Close()

	if err := sess.Refresh(ctx); err != nil {
		outcome.Error = err
		return outcome
	}
	outcome.Annotations = sess.Annotations()

	if !opts.Fix || outcome.Fixable() == 0 {
		return outcome
	}

	fixed := fix.ApplyAnnotations(text, outcome.Annotations)
	for _, skipped := range fixed.Skipped {
		logger.Debug("fix skipped", "rule", skipped.RuleID(), "line", skipped.Start.Line)
	}
	if fixed.Applied == 0 || fixed.Text == text {
		return outcome
	}

	if opts.Backup {
		if _, err := fsutil.CreateBackup(ctx, path); err != nil {
			outcome.Error = err
			return outcome
		}
	}

	if err := fsutil.WriteIfUnchanged(ctx, snap, []byte(fixed.Text)); err != nil {
		if errors.Is(err, fsutil.ErrModified) {
			logger.Warn("file changed during analysis, fixes not written")
			outcome.Skipped = true
			return outcome
		}
		outcome.Error = err
		return outcome
	}

	outcome.Fixed = fixed.Applied
	outcome.Written = true
	return outcome
}

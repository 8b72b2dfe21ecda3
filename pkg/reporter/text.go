package reporter

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/yaklabco/gorulesync/internal/ui/pretty"
	"github.com/yaklabco/gorulesync/pkg/analysis"
	"github.com/yaklabco/gorulesync/pkg/position"
	"github.com/yaklabco/gorulesync/pkg/runner"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(ctx context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Files) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprintln(r.bw, r.styles.Success.Render("No files to check."))
		}
		return 0, nil
	}

	var total int
	for i := range result.Files {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		total += r.reportFile(&result.Files[i])
	}

	if r.opts.ShowSummary {
		fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats))
	}

	return total, nil
}

func (r *TextReporter) reportFile(file *runner.FileOutcome) int {
	path := analysis.RelativePath(file.Path, r.opts.WorkingDir)

	if file.Error != nil {
		fmt.Fprintf(r.bw, "%s: %s\n",
			r.styles.FilePath.Render(path),
			r.styles.Error.Render(fmt.Sprintf("error: %v", file.Error)),
		)
		return 0
	}

	if file.Skipped {
		fmt.Fprintf(r.bw, "%s: %s\n",
			r.styles.FilePath.Render(path),
			r.styles.Warning.Render("changed on disk, fixes not written"),
		)
	}

	if len(file.Annotations) == 0 {
		return 0
	}

	var lines *sourceLines
	if r.opts.ShowContext {
		lines = newSourceLines(file.Content)
	}

	if r.opts.GroupByFile {
		fmt.Fprintln(r.bw, r.styles.FormatFileHeader(path, len(file.Annotations)))
	}

	for i := range file.Annotations {
		annotation := &file.Annotations[i]
		fmt.Fprint(r.bw, r.styles.FormatAnnotation(path, annotation, lines.line(annotation.Start.Line), r.opts.RuleFormat))
	}

	if r.opts.GroupByFile {
		fmt.Fprintln(r.bw)
	}

	return len(file.Annotations)
}

// sourceLines looks up lines of an analyzed document by wire line number.
type sourceLines struct {
	text   string
	mapper *position.Mapper
}

func newSourceLines(text string) *sourceLines {
	return &sourceLines{text: text, mapper: position.NewMapper(text)}
}

// line returns the content of the 1-based line, or "" when it does not exist.
func (s *sourceLines) line(line int) string {
	if s == nil {
		return ""
	}
	start, err := s.mapper.LineStart(position.LineIndex(line))
	if err != nil {
		return ""
	}
	rest := s.text[start:]
	if end := strings.IndexByte(rest, '\n'); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimRight(rest, "\r")
}

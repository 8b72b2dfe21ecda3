package reporter

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaklabco/gorulesync/internal/ui/pretty"
	"github.com/yaklabco/gorulesync/pkg/analysis"
)

// Table layout for summary output. Both tables share one width.
const (
	tableWidth        = 90
	ruleColWidth      = 36
	fileColWidth      = 44
	numColWidth       = 7
	wideColWidth      = 8
	fixableColWidth   = 8
	maxRuleNameLength = 34
	maxFilePathLength = 42
)

// padRight pads s to width with spaces. Call before applying styles.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// padLeft pads s to width with leading spaces. Call before applying styles.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// SummaryRenderer formats results as aggregated summary tables.
type SummaryRenderer struct {
	opts   Options
	styles *pretty.Styles
	out    io.Writer
}

// NewSummaryRenderer creates a new summary renderer.
func NewSummaryRenderer(opts Options) *SummaryRenderer {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &SummaryRenderer{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		out:    opts.Writer,
	}
}

// Render implements Renderer.
func (r *SummaryRenderer) Render(_ context.Context, report *analysis.Report) error {
	for _, fe := range report.Errors {
		fmt.Fprintf(r.out, "%s: %s\n", r.styles.FilePath.Render(fe.Path), r.styles.Error.Render("error: "+fe.Error))
	}

	if report.Totals.Issues == 0 {
		fmt.Fprintln(r.out, r.styles.Success.Render("No issues found"))
		return nil
	}

	r.renderRuleTable(report.ByRule)
	fmt.Fprintln(r.out)
	r.renderFileTable(report.ByFile)
	fmt.Fprintln(r.out)
	r.renderTotals(report.Totals)

	return nil
}

func (r *SummaryRenderer) separator() {
	fmt.Fprintln(r.out, r.styles.TableSeparator.Render(strings.Repeat("─", tableWidth)))
}

func (r *SummaryRenderer) countHeaders() string {
	return strings.Join([]string{
		r.styles.TableHeader.Render(padLeft("Count", numColWidth)),
		r.styles.TableHeader.Render(padLeft("Critical", wideColWidth)),
		r.styles.TableHeader.Render(padLeft("Errors", numColWidth)),
		r.styles.TableHeader.Render(padLeft("Warnings", wideColWidth)),
	}, " ")
}

func countCells(c analysis.Counts) string {
	return strings.Join([]string{
		padLeft(strconv.Itoa(c.Issues), numColWidth),
		padLeft(strconv.Itoa(c.Critical), wideColWidth),
		padLeft(strconv.Itoa(c.Errors), numColWidth),
		padLeft(strconv.Itoa(c.Warnings), wideColWidth),
	}, " ")
}

// rowStyle highlights a row by its most severe annotation.
func (r *SummaryRenderer) rowStyle(c analysis.Counts) lipgloss.Style {
	switch {
	case c.Critical > 0:
		return r.styles.Critical
	case c.Errors > 0:
		return r.styles.Error
	case c.Warnings > 0:
		return r.styles.Warning
	default:
		return lipgloss.NewStyle()
	}
}

func (r *SummaryRenderer) renderRuleTable(rules []analysis.RuleAnalysis) {
	if len(rules) == 0 {
		return
	}

	fmt.Fprintln(r.out, r.styles.Bold.Render("Rules Summary"))
	r.separator()
	fmt.Fprintf(r.out, "%s %s %s\n",
		r.styles.TableHeader.Render(padRight("Rule", ruleColWidth)),
		r.countHeaders(),
		r.styles.TableHeader.Render(padLeft("Fixable", fixableColWidth)),
	)
	r.separator()

	for _, rule := range rules {
		name := rule.Rule
		if name == "" {
			name = rule.RuleID
		}
		if len(name) > maxRuleNameLength {
			name = name[:maxRuleNameLength] + "…"
		}

		fixable := padLeft("", fixableColWidth)
		if rule.Fixable {
			fixable = r.styles.Success.Render(padLeft("✓", fixableColWidth))
		}

		fmt.Fprintf(r.out, "%s %s %s\n",
			r.rowStyle(rule.Counts).Render(padRight(name, ruleColWidth)),
			countCells(rule.Counts),
			fixable,
		)
	}
}

func (r *SummaryRenderer) renderFileTable(files []analysis.FileAnalysis) {
	if len(files) == 0 {
		return
	}

	fmt.Fprintln(r.out, r.styles.Bold.Render("Files Summary"))
	r.separator()
	fmt.Fprintf(r.out, "%s %s\n",
		r.styles.TableHeader.Render(padRight("File", fileColWidth)),
		r.countHeaders(),
	)
	r.separator()

	for _, file := range files {
		path := file.Path
		if len(path) > maxFilePathLength {
			path = "…" + path[len(path)-(maxFilePathLength-1):]
		}

		fmt.Fprintf(r.out, "%s %s\n",
			r.rowStyle(file.Counts).Render(padRight(path, fileColWidth)),
			countCells(file.Counts),
		)
	}
}

func (r *SummaryRenderer) renderTotals(totals analysis.Totals) {
	issueWord := "issues"
	if totals.Issues == 1 {
		issueWord = "issue"
	}
	line := fmt.Sprintf("%d %s", totals.Issues, issueWord)

	var breakdown []string
	if totals.Critical > 0 {
		breakdown = append(breakdown, r.styles.Critical.Render(fmt.Sprintf("%d critical", totals.Critical)))
	}
	if totals.Errors > 0 {
		breakdown = append(breakdown, r.styles.Error.Render(fmt.Sprintf("%d errors", totals.Errors)))
	}
	if totals.Warnings > 0 {
		breakdown = append(breakdown, r.styles.Warning.Render(fmt.Sprintf("%d warnings", totals.Warnings)))
	}
	if len(breakdown) > 0 {
		line += " (" + strings.Join(breakdown, ", ") + ")"
	}

	fileWord := "files"
	if totals.FilesWithIssues == 1 {
		fileWord = "file"
	}
	line += fmt.Sprintf(" in %d %s", totals.FilesWithIssues, fileWord)

	if totals.Fixable > 0 {
		line += fmt.Sprintf(", %d fixable", totals.Fixable)
	}

	fmt.Fprintln(r.out, r.styles.Bold.Render("Total: ")+line)
}

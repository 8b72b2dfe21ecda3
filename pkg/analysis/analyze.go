package analysis

import (
	"cmp"
	"path/filepath"
	"slices"
	"time"

	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/runner"
)

// ReportVersion is the current report format version.
const ReportVersion = "1.0.0"

// RelativePath returns path relative to workDir, or path unchanged.
func RelativePath(path, workDir string) string {
	if workDir == "" {
		return path
	}
	rel, err := filepath.Rel(workDir, path)
	if err != nil {
		return path
	}
	return rel
}

func (c *Counts) add(severity ruleset.Severity) {
	c.Issues++
	switch severity {
	case ruleset.SeverityCritical:
		c.Critical++
	case ruleset.SeverityError:
		c.Errors++
	case ruleset.SeverityWarning:
		c.Warnings++
	default:
		c.Infos++
	}
}

type accumulator struct {
	rules     map[string]*RuleAnalysis
	files     map[string]*FileAnalysis
	ruleFiles map[string]map[string]struct{}
	fileRules map[string]map[string]struct{}
}

func (a *accumulator) file(path string) *FileAnalysis {
	if _, ok := a.files[path]; !ok {
		a.files[path] = &FileAnalysis{Path: path}
		a.fileRules[path] = make(map[string]struct{})
	}
	return a.files[path]
}

func (a *accumulator) rule(id, display string) *RuleAnalysis {
	if _, ok := a.rules[id]; !ok {
		a.rules[id] = &RuleAnalysis{RuleID: id, Rule: display}
		a.ruleFiles[id] = make(map[string]struct{})
	}
	return a.rules[id]
}

// Analyze builds a Report from result in a single pass.
func Analyze(result *runner.Result, opts Options) *Report {
	report := &Report{
		Version:   ReportVersion,
		Timestamp: time.Now(),
	}
	if result == nil {
		return report
	}

	acc := &accumulator{
		rules:     make(map[string]*RuleAnalysis),
		files:     make(map[string]*FileAnalysis),
		ruleFiles: make(map[string]map[string]struct{}),
		fileRules: make(map[string]map[string]struct{}),
	}

	report.Totals.Fixed = result.Stats.Fixed

	for i := range result.Files {
		outcome := &result.Files[i]
		report.Totals.Files++
		if outcome.Error != nil {
			report.Totals.FilesErrored++
			report.Errors = append(report.Errors, FileError{
				Path:  RelativePath(outcome.Path, opts.WorkingDir),
				Error: outcome.Error.Error(),
			})
			continue
		}
		if len(outcome.Annotations) == 0 {
			continue
		}
		report.Totals.FilesWithIssues++

		path := RelativePath(outcome.Path, opts.WorkingDir)
		fa := acc.file(path)

		for j := range outcome.Annotations {
			annotation := &outcome.Annotations[j]
			id := annotation.RuleID()
			display := config.FormatRuleID(opts.RuleFormat, annotation.RulesetName, annotation.RuleName)

			report.Totals.add(annotation.Severity)
			if annotation.HasFix() {
				report.Totals.Fixable++
			}

			fa.add(annotation.Severity)
			acc.fileRules[path][display] = struct{}{}

			ra := acc.rule(id, display)
			ra.add(annotation.Severity)
			ra.Fixable = ra.Fixable || annotation.HasFix()
			acc.ruleFiles[id][path] = struct{}{}

			if opts.IncludeAnnotations {
				report.Annotations = append(report.Annotations, newEntry(path, display, annotation))
			}
		}
	}

	if opts.IncludeByRule {
		report.ByRule = acc.byRule(opts)
	}
	if opts.IncludeByFile {
		report.ByFile = acc.byFile(opts)
	}

	return report
}

func newEntry(path, display string, annotation *ruleset.Annotation) AnnotationEntry {
	entry := AnnotationEntry{
		FilePath:    path,
		RuleID:      annotation.RuleID(),
		Rule:        display,
		Severity:    string(annotation.Severity),
		Category:    annotation.Category,
		Message:     annotation.Message,
		StartLine:   annotation.Start.Line,
		StartColumn: annotation.Start.Col,
		EndLine:     annotation.End.Line,
		EndColumn:   annotation.End.Col,
		Fixable:     annotation.HasFix(),
	}
	if annotation.HasFix() {
		entry.Fix = annotation.Fixes[0].Description
	}
	return entry
}

func (a *accumulator) byRule(opts Options) []RuleAnalysis {
	out := make([]RuleAnalysis, 0, len(a.rules))
	for id, ra := range a.rules {
		for path := range a.ruleFiles[id] {
			ra.Files = append(ra.Files, path)
		}
		slices.Sort(ra.Files)
		out = append(out, *ra)
	}
	slices.SortFunc(out, func(left, right RuleAnalysis) int {
		return compare(left.Counts, right.Counts, left.RuleID, right.RuleID, opts)
	})
	return out
}

func (a *accumulator) byFile(opts Options) []FileAnalysis {
	out := make([]FileAnalysis, 0, len(a.files))
	for path, fa := range a.files {
		for rule := range a.fileRules[path] {
			fa.Rules = append(fa.Rules, rule)
		}
		slices.Sort(fa.Rules)
		out = append(out, *fa)
	}
	slices.SortFunc(out, func(left, right FileAnalysis) int {
		return compare(left.Counts, right.Counts, left.Path, right.Path, opts)
	})
	return out
}

// compare orders two groups. Names break ties so output is deterministic.
func compare(left, right Counts, leftName, rightName string, opts Options) int {
	var result int
	switch opts.SortBy {
	case SortByAlpha:
		return cmp.Compare(leftName, rightName)
	case SortBySeverity:
		result = cmp.Or(
			cmp.Compare(right.Critical, left.Critical),
			cmp.Compare(right.Errors, left.Errors),
			cmp.Compare(right.Warnings, left.Warnings),
			cmp.Compare(right.Issues, left.Issues),
		)
	default:
		result = cmp.Compare(left.Issues, right.Issues)
		if opts.SortDesc {
			result = -result
		}
	}
	return cmp.Or(result, cmp.Compare(leftName, rightName))
}

// Package analysis aggregates a runner.Result into per-file and per-rule
// views shared by the reporters.
package analysis

import "time"

// Report contains pre-computed views of a run. It is built once by Analyze
// and rendered by every reporter.
type Report struct {
	// Annotations is the flat list for detailed output.
	Annotations []AnnotationEntry `json:"annotations,omitempty"`

	// Errors lists files that could not be analyzed.
	Errors []FileError `json:"errors,omitempty"`

	ByFile []FileAnalysis `json:"byFile,omitempty"`
	ByRule []RuleAnalysis `json:"byRule,omitempty"`

	Totals    Totals    `json:"summary"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// AnnotationEntry is one annotation with its file.
type AnnotationEntry struct {
	FilePath    string `json:"filePath"`
	RuleID      string `json:"ruleId"`
	Rule        string `json:"rule"`
	Severity    string `json:"severity"`
	Category    string `json:"category,omitempty"`
	Message     string `json:"message"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
	Fixable     bool   `json:"fixable"`
	Fix         string `json:"fix,omitempty"`
}

// FileError records a file that failed.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Totals are aggregate counts over the run.
type Totals struct {
	Files           int `json:"filesChecked"`
	FilesWithIssues int `json:"filesWithIssues"`
	FilesErrored    int `json:"filesErrored"`
	Counts
	Fixable int `json:"fixable"`
	Fixed   int `json:"fixed"`
}

// HasIssues returns true if there are any issues.
func (t Totals) HasIssues() bool {
	return t.Issues > 0
}

// HasFailures returns true if there are critical or error issues.
func (t Totals) HasFailures() bool {
	return t.Critical > 0 || t.Errors > 0
}

// Counts are per-severity issue counts.
type Counts struct {
	Issues   int `json:"issues"`
	Critical int `json:"critical"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"informational"`
}

// FileAnalysis aggregates one file.
type FileAnalysis struct {
	Path string `json:"path"`
	Counts
	Rules []string `json:"rules,omitempty"`
}

// RuleAnalysis aggregates one rule across files.
type RuleAnalysis struct {
	RuleID string `json:"ruleId"`
	Rule   string `json:"rule"`
	Counts
	Fixable bool     `json:"fixable"`
	Files   []string `json:"files,omitempty"`
}

package runner

import "github.com/yaklabco/gorulesync/pkg/ruleset"

// FileOutcome is the result of analyzing one file.
type FileOutcome struct {
	Path     string
	Language ruleset.Language

	// Content is the text that was analyzed.
	Content string

	// Annotations are the violations found in the file as read. When fixes
	// were written they describe the content before fixing.
	Annotations []ruleset.Annotation

	// Fixed counts annotations whose fix was applied.
	Fixed int

	// Written is set when fixed content replaced the file.
	Written bool

	// Skipped is set when the file changed on disk during the run and its
	// fixes were not written.
	Skipped bool

	Error error
}

// Fixable returns the number of annotations that offer a fix.
func (o *FileOutcome) Fixable() int {
	n := 0
	for i := range o.Annotations {
		if o.Annotations[i].HasFix() {
			n++
		}
	}
	return n
}

// Stats aggregates a run.
type Stats struct {
	FilesDiscovered int
	FilesProcessed  int
	FilesSkipped    int
	FilesErrored    int
	FilesWithIssues int
	FilesModified   int

	Annotations int
	Fixable     int
	Fixed       int
	BySeverity  map[ruleset.Severity]int
}

// Result is the outcome of a run. Files are ordered by path.
type Result struct {
	Files []FileOutcome
	Stats Stats
}

// HasFailures reports whether any critical or error annotation was found.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.BySeverity[ruleset.SeverityCritical] > 0 ||
		r.Stats.BySeverity[ruleset.SeverityError] > 0
}

// HasIssues reports whether any annotation was found.
func (r *Result) HasIssues() bool {
	return r != nil && r.Stats.Annotations > 0
}

// NewResult aggregates outcomes produced outside Run, such as a watched
// document.
func NewResult(files ...FileOutcome) *Result {
	result := &Result{Stats: newStats()}
	for _, outcome := range files {
		result.accumulate(outcome)
	}
	result.Stats.FilesDiscovered = len(files)
	return result
}

func newStats() Stats {
	return Stats{BySeverity: make(map[ruleset.Severity]int)}
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	r.Stats.FilesProcessed++
	if outcome.Skipped {
		r.Stats.FilesSkipped++
	}
	if outcome.Written {
		r.Stats.FilesModified++
	}
	r.Stats.Fixed += outcome.Fixed

	if len(outcome.Annotations) > 0 {
		r.Stats.FilesWithIssues++
	}
	r.Stats.Annotations += len(outcome.Annotations)
	r.Stats.Fixable += outcome.Fixable()
	for i := range outcome.Annotations {
		r.Stats.BySeverity[outcome.Annotations[i].Severity]++
	}
}

package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/runner"
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "5 issues (1 critical, 2 errors, 2 warnings) in 3 files, 2 fixable".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats) string {
	fixed := ""
	if stats.Fixed > 0 {
		fixed = s.Success.Render(fmt.Sprintf("%d fixed in %d %s",
			stats.Fixed, stats.FilesModified, plural(stats.FilesModified, "file", "files")))
	}

	if stats.Annotations == 0 {
		msg := s.Success.Render("No issues found") +
			s.Dim.Render(fmt.Sprintf(" (%d %s checked)", stats.FilesProcessed, plural(stats.FilesProcessed, "file", "files")))
		if fixed != "" {
			msg += ", " + fixed
		}
		return msg + "\n"
	}

	var severityParts []string
	for _, sev := range []ruleset.Severity{
		ruleset.SeverityCritical, ruleset.SeverityError, ruleset.SeverityWarning, ruleset.SeverityInformational,
	} {
		n := stats.BySeverity[sev]
		if n == 0 {
			continue
		}
		label := string(sev)
		if sev == ruleset.SeverityError || sev == ruleset.SeverityWarning {
			label = plural(n, label, label+"s")
		}
		severityParts = append(severityParts, s.Severity(sev).Render(fmt.Sprintf("%d %s", n, label)))
	}

	parts := []string{fmt.Sprintf("%d %s", stats.Annotations, plural(stats.Annotations, "issue", "issues"))}
	if len(severityParts) > 0 {
		parts[0] += " (" + strings.Join(severityParts, ", ") + ")"
	}
	parts[0] += fmt.Sprintf(" in %d %s", stats.FilesWithIssues, plural(stats.FilesWithIssues, "file", "files"))

	if stats.Fixable > 0 {
		parts = append(parts, s.Success.Render(fmt.Sprintf("%d fixable", stats.Fixable)))
	}
	if fixed != "" {
		parts = append(parts, fixed)
	}
	if stats.FilesErrored > 0 {
		parts = append(parts, s.Failure.Render(fmt.Sprintf("%d %s failed", stats.FilesErrored, plural(stats.FilesErrored, "file", "files"))))
	}

	return strings.Join(parts, ", ") + "\n"
}

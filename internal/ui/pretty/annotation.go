package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// FormatAnnotation formats one annotation as
//
//	path:line:col  severity  message  (rule)
//
// followed by the source line with a caret when sourceLine is set, and the
// first fix description when the annotation offers one.
func (s *Styles) FormatAnnotation(path string, a *ruleset.Annotation, sourceLine string, format config.RuleFormat) string {
	var builder strings.Builder

	location := fmt.Sprintf("%s:%d:%d", s.FilePath.Render(path), a.Start.Line, a.Start.Col)
	rule := config.FormatRuleID(format, a.RulesetName, a.RuleName)

	fmt.Fprintf(&builder, "  %s  %s  %s  %s\n",
		location,
		s.FormatSeverity(a.Severity),
		s.Message.Render(a.Message),
		s.RuleID.Render("("+rule+")"),
	)

	if sourceLine != "" {
		builder.WriteString(s.FormatSourceContext(sourceLine, a.Start.Col))
	}

	if a.HasFix() {
		builder.WriteString("    " + s.Dim.Render("Fix:") + " " + s.Fix.Render(a.Fixes[0].Description) + "\n")
	}

	return builder.String()
}

// FormatSeverity returns the styled display label of a severity.
func (s *Styles) FormatSeverity(sev ruleset.Severity) string {
	return s.Severity(sev).Render(strings.ToLower(sev.Presentation()))
}

// FormatSourceContext formats the source line with a caret under column.
func (s *Styles) FormatSourceContext(line string, column int) string {
	const indent = "        "

	var builder strings.Builder
	builder.WriteString(indent + s.SourceLine.Render(strings.TrimRight(line, "\r")) + "\n")

	if column > 0 {
		builder.WriteString(indent + strings.Repeat(" ", column-1) + s.Caret.Render("^") + "\n")
	}

	return builder.String()
}

// FormatFileHeader formats a file header for grouped output.
func (s *Styles) FormatFileHeader(path string, issueCount int) string {
	header := s.FilePath.Render(path)
	switch issueCount {
	case 0:
	case 1:
		header += s.Dim.Render(" (1 issue)")
	default:
		header += s.Dim.Render(fmt.Sprintf(" (%d issues)", issueCount))
	}
	return header
}

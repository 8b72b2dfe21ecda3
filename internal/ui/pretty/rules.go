package pretty

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// descriptionIndent aligns wrapped descriptions under the rule name.
const descriptionIndent = 4

// FormatRule formats a cached rule for the rules listing: its identifier,
// language and type, then its Markdown description flattened to plain text
// and wrapped to width.
func (s *Styles) FormatRule(rule ruleset.Rule, format config.RuleFormat, width int) string {
	rulesetName, ruleName := ruleset.SplitRuleID(rule.ID)
	if ruleName == "" {
		ruleName = rule.Name
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "  %s  %s\n",
		s.Bold.Render(config.FormatRuleID(format, rulesetName, ruleName)),
		s.Dim.Render(fmt.Sprintf("[%s, %s]", rule.Language, rule.Type)),
	)

	if desc := PlainText(rule.Description); desc != "" {
		wrapWidth := max(width-descriptionIndent, 20)
		wrapped := lipgloss.NewStyle().Width(wrapWidth).Render(desc)
		for _, line := range strings.Split(wrapped, "\n") {
			builder.WriteString(strings.Repeat(" ", descriptionIndent) + strings.TrimRight(line, " ") + "\n")
		}
	}

	return builder.String()
}

// FormatLanguageHeader formats the heading of one language group.
func (s *Styles) FormatLanguageHeader(lang ruleset.Language, count int) string {
	return s.Title.Render(lang.String()) + s.Dim.Render(fmt.Sprintf(" (%d %s)", count, plural(count, "rule", "rules")))
}

// PlainText renders Markdown as a single line of plain text. Markup is
// dropped; code spans and code blocks keep their content.
func PlainText(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var builder strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				builder.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Text:
			builder.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				builder.WriteByte(' ')
			}
		case *ast.String:
			builder.Write(n.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := range lines.Len() {
				segment := lines.At(i)
				builder.Write(segment.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(builder.String()), " ")
}

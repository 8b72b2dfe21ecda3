package pretty_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/gorulesync/internal/ui/pretty"
	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{"empty", "", ""},
		{"plain", "Avoid eval.", "Avoid eval."},
		{"emphasis and code", "Do **not** call `eval` on *input*.", "Do not call eval on input."},
		{"link", "See [the docs](https://example.com).", "See the docs."},
		{"heading and paragraph", "# Title\n\nBody text\nwraps here.", "Title Body text wraps here."},
		{"list", "- one\n- two", "one two"},
		{"code block", "Example:\n\n```python\neval(x)\n```", "Example: eval(x)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pretty.PlainText(tt.markdown))
		})
	}
}

func TestFormatRule(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	rule := ruleset.Rule{
		ID:          "python-security/no-eval",
		Name:        "no-eval",
		Language:    ruleset.LanguagePython,
		Type:        ruleset.RuleTypePattern,
		Description: "Calling `eval` on **untrusted** input allows arbitrary code execution and must be avoided in every module.",
	}

	out := styles.FormatRule(rule, config.RuleFormatCombined, 40)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	assert.Equal(t, "  python-security/no-eval  [Python, pattern]", lines[0])
	assert.Greater(t, len(lines), 2, "description should wrap")
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "    "), "description lines are indented: %q", line)
		assert.LessOrEqual(t, len(line), 40)
	}
	assert.Contains(t, out, "untrusted")
	assert.NotContains(t, out, "**")
}

func TestFormatLanguageHeader(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	assert.Equal(t, "Python (1 rule)", styles.FormatLanguageHeader(ruleset.LanguagePython, 1))
	assert.Equal(t, "Go (2 rules)", styles.FormatLanguageHeader(ruleset.LanguageGo, 2))
}

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// commentWrapWidth is the maximum width for wrapped comments in templates.
const commentWrapWidth = 70

// ProjectFileName is the ruleset selection file at the project root.
const ProjectFileName = ".rulesync.yml"

// Template formats.
const (
	TemplateFormatYAML = "yaml"
	TemplateFormatJSON = "json"
)

// TemplateOptions controls project file template generation.
type TemplateOptions struct {
	// Format is the output format: "yaml" or "json".
	Format string

	// Selected lists ruleset names written uncommented.
	Selected []string

	// Available lists rulesets offered as commented entries.
	Available []RulesetInfo
}

// RulesetInfo contains ruleset metadata for template generation.
type RulesetInfo struct {
	Name        string
	Description string
	RuleCount   int
	Languages   []string
}

// GenerateTemplate creates a project file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	if opts.Format == TemplateFormatJSON {
		return templateToJSON(opts.Selected)
	}

	var buf bytes.Buffer
	buf.WriteString(DefaultTemplateHeader())
	buf.WriteString("\n#\n# Ruleset names are lowercase letters, digits and dashes,\n")
	buf.WriteString("# at least five characters long.\n\n")

	selected := make(map[string]bool, len(opts.Selected))
	for _, name := range opts.Selected {
		selected[name] = true
	}

	if len(opts.Selected) == 0 && len(opts.Available) == 0 {
		buf.WriteString("rulesets: []\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("rulesets:\n")
	for _, name := range opts.Selected {
		fmt.Fprintf(&buf, "  - %s\n", name)
	}

	available := make([]RulesetInfo, 0, len(opts.Available))
	for _, info := range opts.Available {
		if !selected[info.Name] {
			available = append(available, info)
		}
	}
	sort.Slice(available, func(i, j int) bool {
		return available[i].Name < available[j].Name
	})

	for _, info := range available {
		buf.WriteString("\n")
		if info.Description != "" {
			fmt.Fprintf(&buf, "  # %s\n", wrapComment(info.Description, commentWrapWidth))
		}
		if len(info.Languages) > 0 {
			fmt.Fprintf(&buf, "  # Languages: %s\n", strings.Join(info.Languages, ", "))
		}
		if info.RuleCount > 0 {
			fmt.Fprintf(&buf, "  # Rules: %d\n", info.RuleCount)
		}
		fmt.Fprintf(&buf, "  # - %s\n", info.Name)
	}

	return buf.Bytes(), nil
}

// wrapComment wraps a comment to fit within maxWidth characters.
func wrapComment(text string, maxWidth int) string {
	if len(text) <= maxWidth {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	currentLine := ""

	for _, word := range words {
		switch {
		case currentLine == "":
			currentLine = word
		case len(currentLine)+1+len(word) <= maxWidth:
			currentLine += " " + word
		default:
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n  # ")
}

func templateToJSON(selected []string) ([]byte, error) {
	if selected == nil {
		selected = []string{}
	}

	jsonBytes, err := json.MarshalIndent(map[string]any{"rulesets": selected}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}

	return append(jsonBytes, '\n'), nil
}

// DefaultTemplateHeader returns the default header for generated project files.
func DefaultTemplateHeader() string {
	return `# gorulesync project rulesets
# See: https://github.com/yaklabco/gorulesync`
}

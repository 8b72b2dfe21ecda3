package configloader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationError represents a project file finding.
type ValidationError struct {
	// Field is the path to the offending node (e.g., "rulesets[2]").
	Field string

	// Value is the offending value.
	Value any

	// Message describes the finding.
	Message string

	// FilePath is the project file (if known).
	FilePath string

	// Line is the line number in the project file (if known).
	Line int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if e.FilePath != "" {
		if e.Line > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", e.FilePath, e.Line))
		} else {
			parts = append(parts, e.FilePath)
		}
	}

	if e.Field != "" {
		parts = append(parts, e.Field)
	}

	parts = append(parts, e.Message)

	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Accepted are the ruleset names the rule cache will request.
	Accepted []string

	// Errors mean the file is treated as absent.
	Errors []ValidationError

	// Warnings are entries that are silently dropped when loading.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

// ValidateProjectFile explains how the project file at path is interpreted.
// Accepted always matches what Resolver.Read returns for the same file.
func ValidateProjectFile(path string) *ValidationResult {
	result := &ValidationResult{}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			FilePath: path,
			Message:  fmt.Sprintf("read file: %v", err),
		})
		return result
	}

	accepted, ok := ParseRulesets(content)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			FilePath: path,
			Message:  describeUnusable(content),
		})
		return result
	}
	result.Accepted = accepted

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err == nil {
		inspectDocument(&doc, result)
	}

	for i := range result.Warnings {
		result.Warnings[i].FilePath = path
	}

	return result
}

// describeUnusable explains why content yields no configuration.
func describeUnusable(content []byte) string {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Sprintf("invalid YAML: %v", err)
	}
	return fmt.Sprintf("no %q sequence at the top level", rulesetsKey)
}

// inspectDocument records a warning for every entry that loading drops.
func inspectDocument(doc *yaml.Node, result *ValidationResult) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Value != rulesetsKey {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   key.Value,
				Value:   key.Value,
				Message: "unknown key; it will be ignored",
				Line:    key.Line,
			})
			continue
		}
		if value.Kind == yaml.SequenceNode {
			inspectNames(value, result)
		}
	}
}

func inspectNames(seq *yaml.Node, result *ValidationResult) {
	seen := make(map[string]bool, len(seq.Content))

	for i, item := range seq.Content {
		field := fmt.Sprintf("%s[%d]", rulesetsKey, i)

		switch {
		case item.Kind != yaml.ScalarNode:
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   field,
				Message: "entry is not a ruleset name; it will be ignored",
				Line:    item.Line,
			})
		case item.ShortTag() == "!!null" || item.Value == "":
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   field,
				Message: "empty entry; it will be ignored",
				Line:    item.Line,
			})
		case !ValidRulesetName(item.Value):
			result.Warnings = append(result.Warnings, ValidationError{
				Field: field,
				Value: item.Value,
				Message: fmt.Sprintf(
					"invalid ruleset name %q; names are lowercase letters, digits and dashes, at least 5 characters",
					item.Value),
				Line: item.Line,
			})
		case seen[item.Value]:
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   field,
				Value:   item.Value,
				Message: fmt.Sprintf("duplicate ruleset %q", item.Value),
				Line:    item.Line,
			})
		default:
			seen[item.Value] = true
		}
	}
}

// Package ruleset defines the rule and annotation model shared by the rule
// cache, the remote rule source, and annotation sessions.
package ruleset

import (
	"regexp"
	"strings"
)

// namePattern is the accepted shape of a ruleset name.
//
//nolint:gochecknoglobals // Compiled once, read-only.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{4,}$`)

// ValidName reports whether name is an acceptable ruleset name.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// RuleType is the kind of check a rule performs.
type RuleType string

const (
	RuleTypePattern RuleType = "pattern"
	RuleTypeAST     RuleType = "ast"
)

// EntityChecked narrows an AST rule to one kind of syntax node.
type EntityChecked string

const (
	EntityFunctionCall       EntityChecked = "function-call"
	EntityIfCondition        EntityChecked = "if-condition"
	EntityForLoop            EntityChecked = "for-loop"
	EntityFunctionDefinition EntityChecked = "function-definition"
	EntityTryBlock           EntityChecked = "try-block"
	EntityAssignment         EntityChecked = "assignment"
	EntityImport             EntityChecked = "import"
	EntityClassDefinition    EntityChecked = "class-definition"
)

// Rule is a single check definition targeting one language.
type Rule struct {
	// ID is "{rulesetName}/{ruleName}".
	ID string `json:"id" yaml:"id"`

	// Name is the rule name within its ruleset.
	Name string `json:"name" yaml:"name"`

	// Language is the language the rule applies to.
	Language Language `json:"language" yaml:"language"`

	// Content is the rule body, usually base64-encoded source.
	Content string `json:"content" yaml:"content"`

	// Type is the kind of rule.
	Type RuleType `json:"type" yaml:"type"`

	// EntityChecked is set for AST rules that target one node kind.
	EntityChecked EntityChecked `json:"entityChecked,omitempty" yaml:"entity_checked,omitempty"`

	// Pattern is the match expression of a pattern rule.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Variables are substitutions used by pattern rules.
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Description is a Markdown explanation of the rule.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Ruleset is a named bundle of rules. It is immutable once fetched.
type Ruleset struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Rules []Rule `json:"rules" yaml:"rules"`
}

// RuleID joins a ruleset name and a rule name into a rule identifier.
func RuleID(rulesetName, ruleName string) string {
	return rulesetName + "/" + ruleName
}

// SplitRuleID splits a rule identifier at its first slash.
// An identifier without a slash is treated as a bare rule name.
func SplitRuleID(id string) (string, string) {
	rulesetName, ruleName, ok := strings.Cut(id, "/")
	if !ok {
		return "", id
	}
	return rulesetName, ruleName
}

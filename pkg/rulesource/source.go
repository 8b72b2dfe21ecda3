// Package rulesource defines the remote rule service consumed by the rule
// cache and annotation sessions, plus an HTTP client and a caching decorator.
package rulesource

import (
	"context"
	"errors"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// ErrNoCredentials is returned by a Provider when no API token is configured.
var ErrNoCredentials = errors.New("rule source credentials not configured")

// FileEncoding is the encoding of analyzed content.
const FileEncoding = "utf-8"

// Source is the remote service that owns rulesets and runs analyses.
//
// Rulesets returns an error when the service cannot be reached; that is the
// "no answer" case and callers keep their previous state. An empty result
// means none of the requested names matched.
type Source interface {
	// Rulesets fetches the full bodies of the named rulesets.
	Rulesets(ctx context.Context, names []string) ([]ruleset.Ruleset, error)

	// RulesetsTimestamp returns the most recent update time across the named
	// rulesets, as an epoch value.
	RulesetsTimestamp(ctx context.Context, names []string) (int64, error)

	// Analyze runs rules against a document.
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)
}

// Provider obtains a Source. It returns ErrNoCredentials when no client can
// be built.
type Provider func() (Source, error)

// Static returns a Provider that always yields src.
func Static(src Source) Provider {
	return func() (Source, error) {
		if src == nil {
			return nil, ErrNoCredentials
		}
		return src, nil
	}
}

// AnalysisRule is a rule as sent to the analyzer.
type AnalysisRule struct {
	ID            string            `json:"id"`
	ContentBase64 string            `json:"contentBase64"`
	Language      string            `json:"language"`
	Type          string            `json:"type"`
	EntityChecked string            `json:"entityChecked,omitempty"`
	Pattern       string            `json:"pattern,omitempty"`
	Variables     map[string]string `json:"variables,omitempty"`
}

// NewAnalysisRule converts a cached rule into its request form.
func NewAnalysisRule(rule ruleset.Rule) AnalysisRule {
	return AnalysisRule{
		ID:            rule.ID,
		ContentBase64: rule.Content,
		Language:      rule.Language.WireName(),
		Type:          string(rule.Type),
		EntityChecked: string(rule.EntityChecked),
		Pattern:       rule.Pattern,
		Variables:     rule.Variables,
	}
}

// AnalysisRequest is one analysis of one document.
type AnalysisRequest struct {
	Filename     string         `json:"filename"`
	Language     string         `json:"language"`
	FileEncoding string         `json:"fileEncoding"`
	CodeBase64   string         `json:"codeBase64"`
	Rules        []AnalysisRule `json:"rules"`
	LogOutput    bool           `json:"logOutput"`
}

// RuleViolations groups the violations produced by one rule.
type RuleViolations struct {
	Identifier string              `json:"identifier"`
	Violations []ruleset.Violation `json:"violations"`
	Errors     []string            `json:"errors,omitempty"`
	Output     string              `json:"output,omitempty"`
}

// AnalysisResponse is the analyzer's answer.
type AnalysisResponse struct {
	RuleResponses []RuleViolations `json:"ruleResponses"`
	Errors        []string         `json:"errors"`
}

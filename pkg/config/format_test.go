package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/gorulesync/pkg/config"
)

func TestFormatRuleID(t *testing.T) {
	tests := []struct {
		name        string
		format      config.RuleFormat
		rulesetName string
		ruleName    string
		want        string
	}{
		{"name format", config.RuleFormatName, "python-security", "no-eval", "no-eval"},
		{"ruleset format", config.RuleFormatRuleset, "python-security", "no-eval", "python-security"},
		{"combined format", config.RuleFormatCombined, "python-security", "no-eval", "python-security/no-eval"},
		{"empty ruleset", config.RuleFormatCombined, "", "no-eval", "no-eval"},
		{"default to combined", config.RuleFormat(""), "python-security", "no-eval", "python-security/no-eval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := config.FormatRuleID(tt.format, tt.rulesetName, tt.ruleName)
			assert.Equal(t, tt.want, got)
		})
	}
}

package runner_test

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

type staticRules struct{}

func (staticRules) RulesForLanguage(lang ruleset.Language) []ruleset.Rule {
	if lang == ruleset.LanguageUnknown {
		return nil
	}
	return []ruleset.Rule{{
		ID:       "core-security/no-eval",
		Name:     "no-eval",
		Language: lang.Normalize(),
		Content:  "Y29udGVudA==",
		Type:     ruleset.RuleTypePattern,
	}}
}

func (staticRules) WaitReady(context.Context, time.Duration) bool { return true }
func (staticRules) Timestamp() int64                             { return 1 }
func (staticRules) Subscribe(func()) func()                      { return func() {} }

// scriptedSource answers analyses by file base name.
type scriptedSource struct {
	mu        sync.Mutex
	responses map[string]*rulesource.AnalysisResponse
	failures  map[string]error
	analyzed  []string
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{
		responses: make(map[string]*rulesource.AnalysisResponse),
		failures:  make(map[string]error),
	}
}

func (s *scriptedSource) Rulesets(context.Context, []string) ([]ruleset.Ruleset, error) {
	return nil, nil
}

func (s *scriptedSource) RulesetsTimestamp(context.Context, []string) (int64, error) {
	return 0, nil
}

func (s *scriptedSource) Analyze(_ context.Context, req rulesource.AnalysisRequest) (*rulesource.AnalysisResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := filepath.Base(req.Filename)
	s.analyzed = append(s.analyzed, name)

	if err := s.failures[name]; err != nil {
		return nil, err
	}
	if resp, ok := s.responses[name]; ok {
		return resp, nil
	}
	return &rulesource.AnalysisResponse{}, nil
}

func evalViolation(severity string, withFix bool) ruleset.Violation {
	v := ruleset.Violation{
		Message:  "avoid eval",
		Start:    ruleset.Position{Line: 1, Col: 1},
		End:      ruleset.Position{Line: 1, Col: 5},
		Severity: severity,
		Category: "security",
	}
	if withFix {
		replacement := "safe_eval"
		v.Fixes = []ruleset.Fix{{
			Description: "use safe_eval",
			Edits: []ruleset.Edit{{
				Kind:    ruleset.EditReplace,
				Start:   ruleset.Position{Line: 1, Col: 1},
				End:     &ruleset.Position{Line: 1, Col: 5},
				Content: &replacement,
			}},
		}}
	}
	return v
}

func respond(violations ...ruleset.Violation) *rulesource.AnalysisResponse {
	return &rulesource.AnalysisResponse{
		RuleResponses: []rulesource.RuleViolations{
			{Identifier: "core-security/no-eval", Violations: violations},
		},
	}
}

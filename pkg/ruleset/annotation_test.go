package ruleset_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

func ptr[T any](v T) *T {
	return &v
}

func sampleViolation() ruleset.Violation {
	return ruleset.Violation{
		Message:  "do not use eval",
		Start:    ruleset.Position{Line: 2, Col: 1},
		End:      ruleset.Position{Line: 2, Col: 10},
		Severity: "critical",
		Category: "security",
		Fixes: []ruleset.Fix{{
			Description: "remove eval",
			Edits: []ruleset.Edit{{
				Kind:    ruleset.EditReplace,
				Start:   ruleset.Position{Line: 2, Col: 1},
				End:     ptr(ruleset.Position{Line: 2, Col: 5}),
				Content: ptr("safe"),
			}},
		}},
	}
}

func TestDedupeViolations(t *testing.T) {
	t.Parallel()

	first := sampleViolation()
	second := sampleViolation()
	require.NotSame(t, first.Fixes[0].Edits[0].Content, second.Fixes[0].Edits[0].Content)

	different := sampleViolation()
	different.Fixes[0].Edits[0].Content = ptr("other")

	got := ruleset.DedupeViolations([]ruleset.Violation{first, second, different})
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(first))
	assert.True(t, got[1].Equal(different))
}

func TestViolationEqual_NilVersusPresent(t *testing.T) {
	t.Parallel()

	a := sampleViolation()
	b := sampleViolation()
	b.Fixes[0].Edits[0].End = nil

	assert.False(t, a.Equal(b))
	assert.False(t, b.Equal(a))
}

func TestNewAnnotation(t *testing.T) {
	t.Parallel()

	annotation := ruleset.NewAnnotation("python-security/no-eval", sampleViolation())

	assert.Equal(t, "python-security", annotation.RulesetName)
	assert.Equal(t, "no-eval", annotation.RuleName)
	assert.Equal(t, ruleset.SeverityCritical, annotation.Severity)
	assert.Equal(t, "python-security/no-eval", annotation.RuleID())
	assert.True(t, annotation.HasFix())
}

func TestEditValidate(t *testing.T) {
	t.Parallel()

	start := ruleset.Position{Line: 1, Col: 1}
	end := &ruleset.Position{Line: 1, Col: 3}

	tests := []struct {
		name string
		edit ruleset.Edit
		err  error
	}{
		{"insert ok", ruleset.Edit{Kind: ruleset.EditInsert, Start: start, Content: ptr("x")}, nil},
		{"insert without content", ruleset.Edit{Kind: ruleset.EditInsert, Start: start}, ruleset.ErrEditMissingContent},
		{"replace ok", ruleset.Edit{Kind: ruleset.EditReplace, Start: start, End: end, Content: ptr("x")}, nil},
		{"replace without end", ruleset.Edit{Kind: ruleset.EditReplace, Start: start, Content: ptr("x")}, ruleset.ErrEditMissingEnd},
		{"remove ok", ruleset.Edit{Kind: ruleset.EditRemove, Start: start, End: end}, nil},
		{"remove without end", ruleset.Edit{Kind: ruleset.EditRemove, Start: start}, ruleset.ErrEditMissingEnd},
		{"unknown kind", ruleset.Edit{Kind: "move", Start: start}, ruleset.ErrEditUnknownKind},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := testCase.edit.Validate()
			if testCase.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, testCase.err)
		})
	}
}

func TestEditKind_UnmarshalWireNames(t *testing.T) {
	t.Parallel()

	var edits []ruleset.Edit
	payload := `[{"editType":"add","start":{"line":1,"col":1},"content":"x"},
		{"editType":"update","start":{"line":1,"col":1},"end":{"line":1,"col":2},"content":"y"},
		{"editType":"remove","start":{"line":1,"col":1},"end":{"line":1,"col":2}}]`
	require.NoError(t, json.Unmarshal([]byte(payload), &edits))

	require.Len(t, edits, 3)
	assert.Equal(t, ruleset.EditInsert, edits[0].Kind)
	assert.Equal(t, ruleset.EditReplace, edits[1].Kind)
	assert.Equal(t, ruleset.EditRemove, edits[2].Kind)

	var unknown ruleset.Edit
	require.NoError(t, json.Unmarshal([]byte(`{"editType":"move","start":{"line":1,"col":1}}`), &unknown))
	assert.Equal(t, ruleset.EditKind("move"), unknown.Kind)
	assert.ErrorIs(t, unknown.Validate(), ruleset.ErrEditUnknownKind)
}

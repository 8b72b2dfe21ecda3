package fix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gorulesync/pkg/fix"
	"github.com/yaklabco/gorulesync/pkg/position"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

func ptr[T any](v T) *T { return &v }

func TestApplyEdits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		edits   []fix.TextEdit
		want    string
	}{
		{"empty edits returns original", "hello world", nil, "hello world"},
		{"single replacement", "hello world", []fix.TextEdit{{0, 5, "hi"}}, "hi world"},
		{"single insertion", "hello world", []fix.TextEdit{{5, 5, " beautiful"}}, "hello beautiful world"},
		{"single deletion", "hello world", []fix.TextEdit{{5, 11, ""}}, "hello"},
		{
			"multiple non-overlapping edits", "hello world",
			[]fix.TextEdit{{0, 5, "hi"}, {6, 11, "there"}}, "hi there",
		},
		{
			"adjacent edits", "abcdef",
			[]fix.TextEdit{{0, 2, "XX"}, {2, 4, "YY"}, {4, 6, "ZZ"}}, "XXYYZZ",
		},
		{"insert at end", "hello", []fix.TextEdit{{5, 5, " world"}}, "hello world"},
		{"empty content with insertion", "", []fix.TextEdit{{0, 0, "hello"}}, "hello"},
		{"delete all content", "hello", []fix.TextEdit{{0, 5, ""}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fix.ApplyEdits(tt.content, tt.edits))
		})
	}
}

func TestFromEdit(t *testing.T) {
	t.Parallel()

	mapper := position.NewMapper("x = eval(y)\nprint(x)\n")

	tests := []struct {
		name    string
		edit    ruleset.Edit
		want    fix.TextEdit
		wantErr error
	}{
		{
			name: "insert",
			edit: ruleset.Edit{Kind: ruleset.EditInsert, Start: ruleset.Position{Line: 2, Col: 1}, Content: ptr("# ")},
			want: fix.TextEdit{StartOffset: 12, EndOffset: 12, NewText: "# "},
		},
		{
			name: "replace",
			edit: ruleset.Edit{
				Kind:    ruleset.EditReplace,
				Start:   ruleset.Position{Line: 1, Col: 5},
				End:     &ruleset.Position{Line: 1, Col: 9},
				Content: ptr("literal_eval"),
			},
			want: fix.TextEdit{StartOffset: 4, EndOffset: 8, NewText: "literal_eval"},
		},
		{
			name: "remove",
			edit: ruleset.Edit{
				Kind:  ruleset.EditRemove,
				Start: ruleset.Position{Line: 2, Col: 0},
				End:   &ruleset.Position{Line: 3, Col: 0},
			},
			want: fix.TextEdit{StartOffset: 12, EndOffset: 21},
		},
		{
			name:    "missing end",
			edit:    ruleset.Edit{Kind: ruleset.EditRemove, Start: ruleset.Position{Line: 1, Col: 1}},
			wantErr: ruleset.ErrEditMissingEnd,
		},
		{
			name:    "line out of range",
			edit:    ruleset.Edit{Kind: ruleset.EditInsert, Start: ruleset.Position{Line: 9, Col: 1}, Content: ptr("x")},
			wantErr: position.ErrLineOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fix.FromEdit(mapper, tt.edit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyFix(t *testing.T) {
	t.Parallel()

	text := "import os\nx = eval(y)\n"
	f := ruleset.Fix{
		Description: "use literal_eval",
		Edits: []ruleset.Edit{
			{
				Kind:    ruleset.EditReplace,
				Start:   ruleset.Position{Line: 2, Col: 5},
				End:     &ruleset.Position{Line: 2, Col: 9},
				Content: ptr("ast.literal_eval"),
			},
			{Kind: ruleset.EditInsert, Start: ruleset.Position{Line: 1, Col: 0}, Content: ptr("import ast\n")},
		},
	}

	got, err := fix.ApplyFix(text, f)
	require.NoError(t, err)
	assert.Equal(t, "import ast\nimport os\nx = ast.literal_eval(y)\n", got)
}

func TestApplyFix_CRLF(t *testing.T) {
	t.Parallel()

	text := "a = 1\r\nb = eval(c)\r\n"
	f := ruleset.Fix{Edits: []ruleset.Edit{{
		Kind:  ruleset.EditRemove,
		Start: ruleset.Position{Line: 2, Col: 5},
		End:   &ruleset.Position{Line: 2, Col: 9},
	}}}

	got, err := fix.ApplyFix(text, f)
	require.NoError(t, err)
	assert.Equal(t, "a = 1\r\nb = (c)\r\n", got)
}

func TestApplyFix_Errors(t *testing.T) {
	t.Parallel()

	t.Run("overlapping edits", func(t *testing.T) {
		t.Parallel()
		f := ruleset.Fix{Edits: []ruleset.Edit{
			{Kind: ruleset.EditRemove, Start: ruleset.Position{Line: 1, Col: 1}, End: &ruleset.Position{Line: 1, Col: 4}},
			{Kind: ruleset.EditRemove, Start: ruleset.Position{Line: 1, Col: 2}, End: &ruleset.Position{Line: 1, Col: 5}},
		}}

		_, err := fix.ApplyFix("abcdef", f)
		var conflict *fix.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("column past the end", func(t *testing.T) {
		t.Parallel()
		f := ruleset.Fix{Edits: []ruleset.Edit{
			{Kind: ruleset.EditRemove, Start: ruleset.Position{Line: 1, Col: 1}, End: &ruleset.Position{Line: 1, Col: 40}},
		}}

		_, err := fix.ApplyFix("abc", f)
		var invalid *fix.ValidationError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestApplyAnnotations(t *testing.T) {
	t.Parallel()

	text := "aaa bbb ccc\n"
	remove := func(startCol, endCol int) []ruleset.Fix {
		return []ruleset.Fix{{Edits: []ruleset.Edit{{
			Kind:  ruleset.EditRemove,
			Start: ruleset.Position{Line: 1, Col: startCol},
			End:   &ruleset.Position{Line: 1, Col: endCol},
		}}}}
	}

	annotations := []ruleset.Annotation{
		{RuleName: "first", Fixes: remove(1, 5)},
		{RuleName: "no-fix"},
		{RuleName: "overlaps-first", Fixes: remove(3, 7)},
		{RuleName: "last", Fixes: remove(9, 12)},
		{RuleName: "broken", Fixes: remove(20, 30)},
		{RuleName: "unknown-kind", Fixes: []ruleset.Fix{{Edits: []ruleset.Edit{{
			Kind:  ruleset.EditKind("move"),
			Start: ruleset.Position{Line: 1, Col: 1},
		}}}}},
	}

	result := fix.ApplyAnnotations(text, annotations)

	assert.Equal(t, "bbb \n", result.Text)
	assert.Equal(t, 2, result.Applied)
	require.Len(t, result.Skipped, 3)
	assert.Equal(t, "overlaps-first", result.Skipped[0].RuleName)
	assert.Equal(t, "broken", result.Skipped[1].RuleName)
	assert.Equal(t, "unknown-kind", result.Skipped[2].RuleName)
}

func FuzzApplyFix(f *testing.F) {
	f.Add("hello\nworld\n", 1, 1, 2, 3, "x")
	f.Add("", 1, 0, 1, 0, "")
	f.Add("a\r\nb", 2, 1, 2, 2, "zz")

	f.Fuzz(func(t *testing.T, text string, startLine, startCol, endLine, endCol int, content string) {
		fx := ruleset.Fix{Edits: []ruleset.Edit{{
			Kind:    ruleset.EditReplace,
			Start:   ruleset.Position{Line: startLine, Col: startCol},
			End:     &ruleset.Position{Line: endLine, Col: endCol},
			Content: &content,
		}}}

		// Must never panic, whatever the positions.
		_, _ = fix.ApplyFix(text, fx)
	})
}

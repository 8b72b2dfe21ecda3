package fix

import (
	"fmt"
	"strings"

	"github.com/yaklabco/gorulesync/pkg/position"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// ApplyEdits applies a prepared slice of edits to content.
// Edits must come from PrepareEdits.
func ApplyEdits(content string, edits []TextEdit) string {
	if len(edits) == 0 {
		return content
	}

	delta := 0
	for _, e := range edits {
		delta += len(e.NewText) - (e.EndOffset - e.StartOffset)
	}

	var out strings.Builder
	out.Grow(max(len(content)+delta, 0))

	cursor := 0
	for _, e := range edits {
		out.WriteString(content[cursor:e.StartOffset])
		out.WriteString(e.NewText)
		cursor = e.EndOffset
	}
	out.WriteString(content[cursor:])

	return out.String()
}

// ApplyFix applies every edit of f to text. Positions are resolved
// against text as given; all edits of a fix must fit and must not overlap.
func ApplyFix(text string, f ruleset.Fix) (string, error) {
	edits, err := FromFix(position.NewMapper(text), f)
	if err != nil {
		return "", err
	}

	prepared, err := PrepareEdits(edits, len(text))
	if err != nil {
		return "", fmt.Errorf("fix %q: %w", f.Description, err)
	}

	return ApplyEdits(text, prepared), nil
}

// Result summarizes ApplyAnnotations.
type Result struct {
	// Text is the fixed document.
	Text string

	// Applied counts annotations whose first fix was applied.
	Applied int

	// Skipped lists annotations whose fix was invalid or overlapped an
	// earlier accepted fix.
	Skipped []*ruleset.Annotation
}

// ApplyAnnotations applies the first fix of every annotation that offers
// one. Fixes are accepted in annotation order; a fix whose edits overlap an
// accepted fix or do not fit the document is skipped whole.
func ApplyAnnotations(text string, annotations []ruleset.Annotation) Result {
	mapper := position.NewMapper(text)
	result := Result{Text: text}

	var accepted []TextEdit
	for i := range annotations {
		annotation := &annotations[i]
		if !annotation.HasFix() {
			continue
		}

		edits, err := FromFix(mapper, annotation.Fixes[0])
		if err == nil {
			err = ValidateEdits(edits, len(text))
		}
		if err == nil {
			candidate := append(append([]TextEdit(nil), accepted...), edits...)
			SortEdits(candidate)
			if DetectConflicts(candidate) == nil {
				accepted = candidate
				result.Applied++
				continue
			}
		}

		result.Skipped = append(result.Skipped, annotation)
	}

	result.Text = ApplyEdits(text, accepted)
	return result
}

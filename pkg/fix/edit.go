// Package fix applies the fixes offered by annotations to document text.
package fix

import (
	"fmt"

	"github.com/yaklabco/gorulesync/pkg/position"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// TextEdit represents a single text replacement in a document.
type TextEdit struct {
	// StartOffset is the byte index where the edit begins (inclusive).
	StartOffset int

	// EndOffset is the byte index where the edit ends (exclusive).
	EndOffset int

	// NewText is the replacement text.
	NewText string
}

// FromEdit converts a line/column edit into a byte-offset edit against the
// text mapper was built from.
func FromEdit(mapper *position.Mapper, edit ruleset.Edit) (TextEdit, error) {
	if err := edit.Validate(); err != nil {
		return TextEdit{}, err
	}

	start, err := mapper.Offset(edit.Start.Line, edit.Start.Col)
	if err != nil {
		return TextEdit{}, fmt.Errorf("edit start %s: %w", edit.Start, err)
	}

	if edit.Kind == ruleset.EditInsert {
		return TextEdit{StartOffset: start, EndOffset: start, NewText: *edit.Content}, nil
	}

	end, err := mapper.Offset(edit.End.Line, edit.End.Col)
	if err != nil {
		return TextEdit{}, fmt.Errorf("edit end %s: %w", edit.End, err)
	}

	newText := ""
	if edit.Kind == ruleset.EditReplace {
		newText = *edit.Content
	}

	return TextEdit{StartOffset: start, EndOffset: end, NewText: newText}, nil
}

// FromFix converts every edit of f.
func FromFix(mapper *position.Mapper, f ruleset.Fix) ([]TextEdit, error) {
	edits := make([]TextEdit, 0, len(f.Edits))
	for i, edit := range f.Edits {
		te, err := FromEdit(mapper, edit)
		if err != nil {
			return nil, fmt.Errorf("fix %q edit %d: %w", f.Description, i, err)
		}
		edits = append(edits, te)
	}
	return edits, nil
}

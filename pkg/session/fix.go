package session

import (
	"errors"
	"fmt"

	"github.com/yaklabco/gorulesync/pkg/fix"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// ErrNoSuchFix is returned when an annotation has no fix at the given index.
var ErrNoSuchFix = errors.New("no such fix")

// ApplyFix returns text with the fixIndex-th fix of annotation applied.
// The document itself is not modified; callers write the result back and
// call NotifyEdit.
func (s *Session) ApplyFix(text string, annotation *ruleset.Annotation, fixIndex int) (string, error) {
	if annotation == nil || fixIndex < 0 || fixIndex >= len(annotation.Fixes) {
		return "", fmt.Errorf("%w: index %d", ErrNoSuchFix, fixIndex)
	}

	fixed, err := fix.ApplyFix(text, annotation.Fixes[fixIndex])
	if err != nil {
		return "", fmt.Errorf("apply fix for %s: %w", annotation.RuleID(), err)
	}

	return fixed, nil
}

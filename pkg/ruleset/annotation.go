package ruleset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Position is a wire position: 1-based line and 1-based column, where
// column 0 also means "start of line".
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// String formats the position as "line:col".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// EditKind is the kind of change an Edit makes.
type EditKind string

const (
	EditInsert  EditKind = "insert"
	EditReplace EditKind = "replace"
	EditRemove  EditKind = "remove"
)

// UnmarshalText accepts the canonical kinds plus the "add" and "update"
// spellings used by the rule source. Other kinds are kept verbatim and
// rejected by Validate, so one odd edit only invalidates its own fix.
func (k *EditKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "insert", "add":
		*k = EditInsert
	case "replace", "update":
		*k = EditReplace
	case "remove", "delete":
		*k = EditRemove
	default:
		*k = EditKind(text)
	}
	return nil
}

// Edit errors.
var (
	ErrEditMissingEnd     = errors.New("edit requires an end position")
	ErrEditMissingContent = errors.New("edit requires content")
	ErrEditUnknownKind    = errors.New("unknown edit kind")
)

// Edit is one change proposed by a Fix.
type Edit struct {
	Kind    EditKind  `json:"editType"`
	Start   Position  `json:"start"`
	End     *Position `json:"end,omitempty"`
	Content *string   `json:"content,omitempty"`
}

// Validate checks that the fields required by the edit kind are present.
func (e Edit) Validate() error {
	switch e.Kind {
	case EditInsert:
		if e.Content == nil {
			return ErrEditMissingContent
		}
	case EditReplace:
		if e.End == nil {
			return ErrEditMissingEnd
		}
		if e.Content == nil {
			return ErrEditMissingContent
		}
	case EditRemove:
		if e.End == nil {
			return ErrEditMissingEnd
		}
	default:
		return fmt.Errorf("%w: %q", ErrEditUnknownKind, e.Kind)
	}
	return nil
}

// Equal reports whether two edits are structurally identical.
func (e Edit) Equal(other Edit) bool {
	return e.Kind == other.Kind &&
		e.Start == other.Start &&
		equalPtr(e.End, other.End) &&
		equalPtr(e.Content, other.Content)
}

// Fix is a described change offered to resolve an annotation.
type Fix struct {
	Description string `json:"description"`
	Edits       []Edit `json:"edits"`
}

// Equal reports whether two fixes are structurally identical.
func (f Fix) Equal(other Fix) bool {
	return f.Description == other.Description &&
		slices.EqualFunc(f.Edits, other.Edits, Edit.Equal)
}

// Violation is a raw rule violation as reported by the rule source.
type Violation struct {
	Message  string   `json:"message"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
	Severity string   `json:"severity"`
	Category string   `json:"category"`
	Fixes    []Fix    `json:"fixes"`
}

// Equal reports whether two violations are structurally identical,
// fixes and edits included.
func (v Violation) Equal(other Violation) bool {
	return v.Message == other.Message &&
		v.Start == other.Start &&
		v.End == other.End &&
		v.Severity == other.Severity &&
		v.Category == other.Category &&
		slices.EqualFunc(v.Fixes, other.Fixes, Fix.Equal)
}

// DedupeViolations removes structurally identical violations, keeping the
// first occurrence. Comparison is pairwise with Violation.Equal.
func DedupeViolations(violations []Violation) []Violation {
	unique := make([]Violation, 0, len(violations))
	for _, candidate := range violations {
		if !slices.ContainsFunc(unique, candidate.Equal) {
			unique = append(unique, candidate)
		}
	}
	return unique
}

// Annotation is a violation materialized against a document.
type Annotation struct {
	RulesetName string
	RuleName    string
	Message     string
	Severity    Severity
	Category    string
	Start       Position
	End         Position
	Fixes       []Fix
}

// NewAnnotation builds an annotation from a violation of the rule ruleID.
func NewAnnotation(ruleID string, v Violation) Annotation {
	rulesetName, ruleName := SplitRuleID(ruleID)
	return Annotation{
		RulesetName: rulesetName,
		RuleName:    ruleName,
		Message:     v.Message,
		Severity:    ParseSeverity(v.Severity),
		Category:    v.Category,
		Start:       v.Start,
		End:         v.End,
		Fixes:       v.Fixes,
	}
}

// RuleID returns the identifier of the rule that produced the annotation.
func (a *Annotation) RuleID() string {
	return RuleID(a.RulesetName, a.RuleName)
}

// HasFix returns true if the annotation offers at least one fix.
func (a *Annotation) HasFix() bool {
	return len(a.Fixes) > 0
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

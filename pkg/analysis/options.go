package analysis

import "github.com/yaklabco/gorulesync/pkg/config"

// SortField specifies how ByFile and ByRule are ordered.
type SortField string

const (
	SortByCount    SortField = "count"
	SortByAlpha    SortField = "alpha"
	SortBySeverity SortField = "severity"
)

// IsValid returns true if the sort field is valid.
func (s SortField) IsValid() bool {
	switch s {
	case SortByCount, SortByAlpha, SortBySeverity:
		return true
	default:
		return false
	}
}

// Options configures Analyze.
type Options struct {
	IncludeAnnotations bool
	IncludeByFile      bool
	IncludeByRule      bool

	SortBy   SortField
	SortDesc bool

	// RuleFormat controls how rule identifiers are displayed.
	RuleFormat config.RuleFormat

	// WorkingDir makes paths relative when set.
	WorkingDir string
}

// DefaultOptions includes every view, sorted by descending count.
func DefaultOptions() Options {
	return Options{
		IncludeAnnotations: true,
		IncludeByFile:      true,
		IncludeByRule:      true,
		SortBy:             SortByCount,
		SortDesc:           true,
		RuleFormat:         config.RuleFormatCombined,
	}
}

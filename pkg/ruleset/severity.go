package ruleset

import "strings"

// Severity is the importance of an annotation as reported by the rule source.
type Severity string

const (
	SeverityCritical      Severity = "critical"
	SeverityError         Severity = "error"
	SeverityWarning       Severity = "warning"
	SeverityInformational Severity = "informational"
)

// ParseSeverity normalizes a severity string. Unknown values become
// SeverityInformational.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityError:
		return SeverityError
	case SeverityWarning:
		return SeverityWarning
	default:
		return SeverityInformational
	}
}

// Rank orders severities: critical > error > warning > anything else.
func (s Severity) Rank() int {
	switch ParseSeverity(string(s)) {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Presentation returns the display label for the severity.
func (s Severity) Presentation() string {
	return Presentation(string(s))
}

// Presentation maps a raw severity string to its display label.
// Unrecognized severities are shown as "Informational".
func Presentation(severity string) string {
	switch ParseSeverity(severity) {
	case SeverityCritical:
		return "Critical"
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	default:
		return "Informational"
	}
}

// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError    = "error"
	FieldPath     = "path"
	FieldRoot     = "root"
	FieldDuration = "duration"

	// Rule cache fields.
	FieldRulesets  = "rulesets"
	FieldRules     = "rules"
	FieldLanguages = "languages"
	FieldTimestamp = "timestamp"
	FieldResult    = "result"
	FieldInterval  = "interval"

	// Session fields.
	FieldLanguage    = "language"
	FieldAnnotations = "annotations"
	FieldViolations  = "violations"
	FieldDuplicates  = "duplicates"

	// Transport fields.
	FieldURL    = "url"
	FieldStatus = "status"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)

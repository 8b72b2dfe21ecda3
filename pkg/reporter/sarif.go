package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/yaklabco/gorulesync/pkg/analysis"
	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/runner"
)

// SARIF version used by this reporter.
const sarifVersion = "2.1.0"

// SARIF schema URI.
const sarifSchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

const toolInformationURI = "https://github.com/yaklabco/gorulesync"

// SARIFOutput represents the root SARIF document.
type SARIFOutput struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single analysis run.
type SARIFRun struct {
	Tool    SARIFTool     `json:"tool"`
	Results []SARIFResult `json:"results"`
}

// SARIFTool describes the analysis tool.
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver contains tool metadata and rules.
type SARIFDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []SARIFRule `json:"rules"`
}

// SARIFRule describes a rule.
type SARIFRule struct {
	ID            string           `json:"id"`
	Name          string           `json:"name,omitempty"`
	DefaultConfig *SARIFRuleConfig `json:"defaultConfiguration,omitempty"`
}

// SARIFRuleConfig contains rule configuration.
type SARIFRuleConfig struct {
	Level string `json:"level"`
}

// SARIFResult represents a single annotation.
type SARIFResult struct {
	RuleID     string          `json:"ruleId"`
	Level      string          `json:"level"`
	Message    SARIFMessage    `json:"message"`
	Locations  []SARIFLocation `json:"locations"`
	Fixes      []SARIFFix      `json:"fixes,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
}

// SARIFMessage contains the result message.
type SARIFMessage struct {
	Text string `json:"text"`
}

// SARIFLocation describes a code location.
type SARIFLocation struct {
	PhysicalLocation SARIFPhysicalLocation `json:"physicalLocation"`
}

// SARIFPhysicalLocation contains file path and region.
type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
	Region           SARIFRegion           `json:"region"`
}

// SARIFArtifactLocation contains the file URI.
type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

// SARIFRegion describes the affected text region.
type SARIFRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// SARIFFix represents a proposed fix.
type SARIFFix struct {
	Description     SARIFMessage          `json:"description"`
	ArtifactChanges []SARIFArtifactChange `json:"artifactChanges"`
}

// SARIFArtifactChange describes changes to a file.
type SARIFArtifactChange struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
	Replacements     []SARIFReplacement    `json:"replacements"`
}

// SARIFReplacement describes a text replacement.
type SARIFReplacement struct {
	DeletedRegion   SARIFRegion           `json:"deletedRegion"`
	InsertedContent *SARIFInsertedContent `json:"insertedContent,omitempty"`
}

// SARIFInsertedContent contains the replacement text.
type SARIFInsertedContent struct {
	Text string `json:"text"`
}

// SARIFReporter formats results as SARIF.
type SARIFReporter struct {
	opts Options
	out  io.Writer
}

// NewSARIFReporter creates a new SARIF reporter.
func NewSARIFReporter(opts Options) *SARIFReporter {
	return &SARIFReporter{
		opts: opts,
		out:  opts.Writer,
	}
}

// Report implements Reporter.
func (r *SARIFReporter) Report(_ context.Context, result *runner.Result) (int, error) {
	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.out)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode SARIF: %w", err)
	}

	return len(output.Runs[0].Results), nil
}

func (r *SARIFReporter) buildOutput(result *runner.Result) *SARIFOutput {
	run := SARIFRun{
		Tool: SARIFTool{
			Driver: SARIFDriver{
				Name:           "gorulesync",
				Version:        r.opts.ToolVersion,
				InformationURI: toolInformationURI,
				Rules:          make([]SARIFRule, 0),
			},
		},
		Results: make([]SARIFResult, 0),
	}

	if result != nil {
		rulesSeen := make(map[string]bool)

		for i := range result.Files {
			file := &result.Files[i]
			uri := filepath.ToSlash(analysis.RelativePath(file.Path, r.opts.WorkingDir))

			for j := range file.Annotations {
				annotation := &file.Annotations[j]
				ruleID := annotation.RuleID()
				level := severityToSARIFLevel(annotation.Severity)

				if !rulesSeen[ruleID] {
					run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, SARIFRule{
						ID:            ruleID,
						Name:          config.FormatRuleID(r.opts.RuleFormat, annotation.RulesetName, annotation.RuleName),
						DefaultConfig: &SARIFRuleConfig{Level: level},
					})
					rulesSeen[ruleID] = true
				}

				run.Results = append(run.Results, newSARIFResult(uri, annotation, level))
			}
		}
	}

	return &SARIFOutput{
		Schema:  sarifSchemaURI,
		Version: sarifVersion,
		Runs:    []SARIFRun{run},
	}
}

func newSARIFResult(uri string, annotation *ruleset.Annotation, level string) SARIFResult {
	res := SARIFResult{
		RuleID:  annotation.RuleID(),
		Level:   level,
		Message: SARIFMessage{Text: annotation.Message},
		Locations: []SARIFLocation{{
			PhysicalLocation: SARIFPhysicalLocation{
				ArtifactLocation: SARIFArtifactLocation{URI: uri},
				Region:           sarifRegion(annotation.Start, &annotation.End),
			},
		}},
	}

	props := map[string]any{"severity": string(annotation.Severity)}
	if annotation.Category != "" {
		props["category"] = annotation.Category
	}
	res.Properties = props

	for _, f := range annotation.Fixes {
		change := SARIFArtifactChange{
			ArtifactLocation: SARIFArtifactLocation{URI: uri},
			Replacements:     make([]SARIFReplacement, 0, len(f.Edits)),
		}
		for _, edit := range f.Edits {
			replacement := SARIFReplacement{DeletedRegion: sarifRegion(edit.Start, edit.End)}
			if edit.Content != nil {
				replacement.InsertedContent = &SARIFInsertedContent{Text: *edit.Content}
			}
			change.Replacements = append(change.Replacements, replacement)
		}
		res.Fixes = append(res.Fixes, SARIFFix{
			Description:     SARIFMessage{Text: f.Description},
			ArtifactChanges: []SARIFArtifactChange{change},
		})
	}

	return res
}

// sarifRegion converts wire positions to a SARIF region. A nil end gives
// an empty region at start, as used by insertions. Column 0 maps to 1.
func sarifRegion(start ruleset.Position, end *ruleset.Position) SARIFRegion {
	region := SARIFRegion{
		StartLine:   start.Line,
		StartColumn: max(start.Col, 1),
	}
	if end == nil {
		region.EndLine = region.StartLine
		region.EndColumn = region.StartColumn
		return region
	}
	region.EndLine = end.Line
	region.EndColumn = max(end.Col, 1)
	return region
}

// severityToSARIFLevel converts a severity to a SARIF level.
func severityToSARIFLevel(severity ruleset.Severity) string {
	switch severity {
	case ruleset.SeverityCritical, ruleset.SeverityError:
		return "error"
	case ruleset.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

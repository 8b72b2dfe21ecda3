// Package configloader locates and parses the project ruleset file and loads
// engine settings from the user settings file and the environment.
package configloader

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// rulesetsKey is the only recognized top-level key of the project file.
const rulesetsKey = "rulesets"

// projectFile is the strict shape of the project file.
type projectFile struct {
	Rulesets []string `yaml:"rulesets"`
}

// Resolver locates the ruleset selection file of one project root.
type Resolver struct {
	// Root is the project root directory. Only its top level is searched.
	Root string
}

// NewResolver returns a Resolver for root.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// Path returns where the project file is expected, whether or not it exists.
func (r *Resolver) Path() string {
	return filepath.Join(r.Root, config.ProjectFileName)
}

// Find returns the project file path when it exists at the project root.
func (r *Resolver) Find() (string, bool) {
	path := r.Path()
	if !fileExists(path) {
		return "", false
	}
	return path, true
}

// ModTime returns the last modification time of path.
func (r *Resolver) ModTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Read reads and parses the project file at path.
// It returns false when the file is unreadable or has no usable rulesets
// sequence. An empty list with true is a valid, distinct result.
func (r *Resolver) Read(path string) ([]string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	return ParseRulesets(content)
}

// ParseRulesets extracts the valid ruleset names from project file content.
// Invalid, null and empty names are dropped silently. Duplicates keep their
// first occurrence.
func ParseRulesets(content []byte) ([]string, bool) {
	candidates, ok := decodeRulesets(content)
	if !ok {
		return nil, false
	}

	accepted, _ := FilterNames(candidates)
	return accepted, true
}

// FilterNames splits candidates into accepted and rejected names.
// Accepted names are deduplicated by first occurrence. Empty names are
// neither accepted nor reported.
func FilterNames(candidates []string) (accepted, rejected []string) {
	accepted = make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, name := range candidates {
		switch {
		case name == "":
		case !ValidRulesetName(name):
			rejected = append(rejected, name)
		case seen[name]:
		default:
			seen[name] = true
			accepted = append(accepted, name)
		}
	}

	return accepted, rejected
}

// ValidRulesetName reports whether name is an acceptable ruleset name.
func ValidRulesetName(name string) bool {
	return ruleset.ValidName(name)
}

// decodeRulesets returns the raw candidate names from content.
func decodeRulesets(content []byte) ([]string, bool) {
	var strict projectFile

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	err := decoder.Decode(&strict)
	switch {
	case err == nil:
		return strict.Rulesets, true
	case errors.Is(err, io.EOF):
		// Empty or comment-only: there is no rulesets sequence.
		return nil, false
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, false
	}

	return fallbackRulesets(&doc)
}

// fallbackRulesets extracts the scalar entries of the root-level rulesets
// sequence, discarding anything else.
func fallbackRulesets(doc *yaml.Node) ([]string, bool) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, false
		}
		root = root.Content[0]
	}

	if root.Kind != yaml.MappingNode {
		return nil, false
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Value != rulesetsKey {
			continue
		}
		if value.Kind != yaml.SequenceNode {
			return nil, false
		}

		names := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() == "!!null" {
				continue
			}
			names = append(names, item.Value)
		}
		return names, true
	}

	return nil, false
}

// Package langdetect resolves the rule language of a document from its file
// name and content using go-enry.
package langdetect

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// enryLanguages maps go-enry language names that ruleset.ParseLanguage does
// not already understand.
//
//nolint:gochecknoglobals // Read-only lookup table.
var enryLanguages = map[string]ruleset.Language{
	"TSX":        ruleset.LanguageTypeScript,
	"JSX":        ruleset.LanguageJavaScript,
	"C#":         ruleset.LanguageCSharp,
	"C++":        ruleset.LanguageCpp,
	"HCL":        ruleset.LanguageTerraform,
	"Dockerfile": ruleset.LanguageDocker,
	"PLSQL":      ruleset.LanguageSQL,
	"PLpgSQL":    ruleset.LanguageSQL,
	"TSQL":       ruleset.LanguageSQL,
}

// classifierCandidates bounds the content classifier to languages with rules.
//
//nolint:gochecknoglobals // Read-only lookup table.
var classifierCandidates = []string{
	"Python", "JavaScript", "TypeScript", "Java", "Go", "C#", "C++", "C",
	"Ruby", "PHP", "Rust", "Kotlin", "Swift", "Scala", "Shell",
}

// FromFilename returns the language of the document at path.
// With content, go-enry's full strategy runs (file name, shebang, extension
// and content heuristics, classifier). Without content only the name is
// used; an ambiguous extension resolves to its first known candidate.
func FromFilename(path string, content []byte) ruleset.Language {
	base := filepath.Base(path)

	if len(bytes.TrimSpace(content)) > 0 {
		if lang := enry.GetLanguage(base, content); lang != "" {
			if resolved := FromEnryName(lang); resolved != ruleset.LanguageUnknown {
				return resolved
			}
		}
		return Detect(content)
	}

	if lang, safe := enry.GetLanguageByFilename(base); safe && lang != "" {
		return FromEnryName(lang)
	}

	for _, candidate := range enry.GetLanguagesByExtension(base, nil, nil) {
		if lang := FromEnryName(candidate); lang != ruleset.LanguageUnknown {
			return lang
		}
	}

	return ruleset.LanguageUnknown
}

// Detect returns the language of content alone, for unsaved documents.
func Detect(content []byte) ruleset.Language {
	if len(bytes.TrimSpace(content)) == 0 {
		return ruleset.LanguageUnknown
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe && lang != "" {
		return FromEnryName(lang)
	}

	if lang := detectByPattern(content); lang != ruleset.LanguageUnknown {
		return lang
	}

	if lang, safe := enry.GetLanguageByClassifier(content, classifierCandidates); safe && lang != "" {
		return FromEnryName(lang)
	}

	return ruleset.LanguageUnknown
}

// FromEnryName maps a go-enry language name to a rule language.
func FromEnryName(name string) ruleset.Language {
	if lang, ok := enryLanguages[name]; ok {
		return lang
	}
	return ruleset.ParseLanguage(name)
}

// detectByPattern checks for patterns that are highly indicative.
func detectByPattern(content []byte) ruleset.Language {
	trimmed := bytes.TrimSpace(content)
	contentStr := string(content)

	switch {
	case bytes.HasPrefix(trimmed, []byte("package ")) && bytes.Contains(content, []byte("func ")):
		return ruleset.LanguageGo
	case bytes.HasPrefix(trimmed, []byte("package ")) && bytes.Contains(content, []byte(";")):
		return ruleset.LanguageJava
	case isPython(contentStr):
		return ruleset.LanguagePython
	case bytes.HasPrefix(trimmed, []byte("<?php")):
		return ruleset.LanguagePHP
	case bytes.HasPrefix(trimmed, []byte("FROM ")) && bytes.Contains(content, []byte("\nRUN ")):
		return ruleset.LanguageDocker
	case strings.Contains(contentStr, "console.log") || strings.Contains(contentStr, "require("):
		return ruleset.LanguageJavaScript
	}

	return ruleset.LanguageUnknown
}

// isPython checks for Python definitions, imports and dunder names.
func isPython(contentStr string) bool {
	if strings.Contains(contentStr, "def ") && strings.Contains(contentStr, "):") {
		return true
	}
	if strings.Contains(contentStr, "__name__") || strings.Contains(contentStr, "__main__") {
		return true
	}
	trimmed := strings.TrimSpace(contentStr)
	return strings.HasPrefix(trimmed, "import ") && !strings.Contains(contentStr, "import (") &&
		!strings.Contains(contentStr, ";")
}

package ruleset

import "strings"

// Language is a language rules can target.
type Language string

const (
	LanguageUnknown    Language = "Unknown"
	LanguagePython     Language = "Python"
	LanguageJavaScript Language = "JavaScript"
	LanguageTypeScript Language = "TypeScript"
	LanguageJava       Language = "Java"
	LanguageGo         Language = "Go"
	LanguageCSharp     Language = "Csharp"
	LanguageCpp        Language = "Cpp"
	LanguageC          Language = "C"
	LanguageRuby       Language = "Ruby"
	LanguagePHP        Language = "Php"
	LanguageRust       Language = "Rust"
	LanguageKotlin     Language = "Kotlin"
	LanguageSwift      Language = "Swift"
	LanguageScala      Language = "Scala"
	LanguageShell      Language = "Shell"
	LanguageDocker     Language = "Docker"
	LanguageTerraform  Language = "Terraform"
	LanguageYAML       Language = "Yaml"
	LanguageJSON       Language = "Json"
	LanguageSQL        Language = "Sql"
)

//nolint:gochecknoglobals // Read-only lookup table.
var languagesByWireName = map[string]Language{
	"python":     LanguagePython,
	"javascript": LanguageJavaScript,
	"typescript": LanguageTypeScript,
	"java":       LanguageJava,
	"go":         LanguageGo,
	"csharp":     LanguageCSharp,
	"c#":         LanguageCSharp,
	"cpp":        LanguageCpp,
	"c++":        LanguageCpp,
	"c":          LanguageC,
	"ruby":       LanguageRuby,
	"php":        LanguagePHP,
	"rust":       LanguageRust,
	"kotlin":     LanguageKotlin,
	"swift":      LanguageSwift,
	"scala":      LanguageScala,
	"shell":      LanguageShell,
	"bash":       LanguageShell,
	"docker":     LanguageDocker,
	"dockerfile": LanguageDocker,
	"terraform":  LanguageTerraform,
	"hcl":        LanguageTerraform,
	"yaml":       LanguageYAML,
	"json":       LanguageJSON,
	"sql":        LanguageSQL,
}

// ParseLanguage maps a language name, in any case, to a Language.
// Unrecognized names map to LanguageUnknown.
func ParseLanguage(name string) Language {
	if lang, ok := languagesByWireName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lang
	}
	return LanguageUnknown
}

// Normalize returns the language whose rules apply to l.
// The rule source does not distinguish TypeScript from JavaScript.
func (l Language) Normalize() Language {
	if l == LanguageTypeScript {
		return LanguageJavaScript
	}
	return l
}

// WireName returns the lowercase name used by the rule source.
func (l Language) WireName() string {
	return strings.ToLower(string(l))
}

// String returns the display name of the language.
func (l Language) String() string {
	return string(l)
}

// UnmarshalText accepts any case of a known language name.
func (l *Language) UnmarshalText(text []byte) error {
	*l = ParseLanguage(string(text))
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gorulesync/internal/ui/pretty"
	"github.com/yaklabco/gorulesync/pkg/config"
	"github.com/yaklabco/gorulesync/pkg/rulecache"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

type rulesFlags struct {
	language   string
	ruleFormat string
	format     string
}

const formatJSON = "json"

// ruleInfo represents a rule in JSON output.
type ruleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func newRulesCommand(globals *globalFlags) *cobra.Command {
	flags := &rulesFlags{}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules of the project's rulesets",
		Long: `Fetch the rulesets selected in .rulesync.yml and list their rules,
grouped by language.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd, globals, flags)
		},
	}

	cmd.Flags().StringVar(&flags.language, "language", "", "only list rules for this language")
	cmd.Flags().StringVar(&flags.ruleFormat, "rule-format", "",
		"rule identifier format: name, ruleset, combined (default from settings)")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")

	return cmd
}

func runRules(cmd *cobra.Command, globals *globalFlags, flags *rulesFlags) error {
	ctx := commandContext(cmd)

	var filter ruleset.Language
	if flags.language != "" {
		filter = ruleset.ParseLanguage(flags.language)
		if filter == ruleset.LanguageUnknown {
			return withExitCode(ExitInvalidUsage, fmt.Errorf("unknown language %q", flags.language))
		}
		filter = filter.Normalize()
	}

	env, err := loadEnvironment(ctx, globals)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	cache, err := env.loadRules(ctx)
	if err != nil {
		return err
	}
	defer cache.Close()

	languages := cache.Languages()
	if filter != "" {
		languages = slices.DeleteFunc(languages, func(lang ruleset.Language) bool {
			return lang != filter
		})
	}

	format := env.settings.RuleFormat
	if flags.ruleFormat != "" {
		format = config.RuleFormat(flags.ruleFormat)
	}

	if flags.format == formatJSON {
		return outputRulesJSON(cmd.OutOrStdout(), cache, languages)
	}

	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(globals.color, out))
	width := pretty.Width(out)

	if len(languages) == 0 {
		fmt.Fprintln(out, styles.Dim.Render("No rules."))
		return nil
	}

	for i, lang := range languages {
		rules := cache.RulesForLanguage(lang)
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, styles.FormatLanguageHeader(lang, len(rules)))
		for _, rule := range rules {
			fmt.Fprint(out, styles.FormatRule(rule, format, width))
		}
	}

	return nil
}

// outputRulesJSON writes the rules of languages as a JSON array.
func outputRulesJSON(w io.Writer, cache *rulecache.Cache, languages []ruleset.Language) error {
	infos := make([]ruleInfo, 0, cache.RuleCount())
	for _, lang := range languages {
		for _, rule := range cache.RulesForLanguage(lang) {
			infos = append(infos, ruleInfo{
				ID:          rule.ID,
				Name:        rule.Name,
				Language:    rule.Language.String(),
				Type:        string(rule.Type),
				Description: pretty.PlainText(rule.Description),
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(infos); err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	return nil
}

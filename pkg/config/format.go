package config

// FormatRuleID formats a rule identifier based on the given format.
// Falls back to the rule name if the ruleset name is empty.
func FormatRuleID(format RuleFormat, rulesetName, ruleName string) string {
	if rulesetName == "" {
		return ruleName
	}

	switch format {
	case RuleFormatName:
		return ruleName
	case RuleFormatRuleset:
		return rulesetName
	case RuleFormatCombined:
		return rulesetName + "/" + ruleName
	default:
		return rulesetName + "/" + ruleName
	}
}

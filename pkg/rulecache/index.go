package rulecache

import (
	"cmp"
	"slices"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// TimestampUnset is the cached ruleset timestamp when nothing is cached.
const TimestampUnset int64 = -1

// entry holds the rules of one language.
type entry struct {
	byID  map[string]ruleset.Rule
	rules []ruleset.Rule
}

// snapshot is an immutable view of the cache. Readers load it atomically
// and see either the whole old state or the whole new one.
type snapshot struct {
	names      []string
	timestamp  int64
	byLanguage map[ruleset.Language]*entry
	ruleCount  int
}

// emptySnapshot returns a cleared snapshot that keeps names.
func emptySnapshot(names []string) *snapshot {
	return &snapshot{
		names:      names,
		timestamp:  TimestampUnset,
		byLanguage: map[ruleset.Language]*entry{},
	}
}

// buildSnapshot flattens rulesets and groups their rules by normalized
// language. Rules keep their ruleset order within a language.
func buildSnapshot(names []string, rulesets []ruleset.Ruleset, timestamp int64) *snapshot {
	snap := &snapshot{
		names:      names,
		timestamp:  timestamp,
		byLanguage: make(map[ruleset.Language]*entry),
	}

	for _, rs := range rulesets {
		for _, rule := range rs.Rules {
			if rule.ID == "" {
				rule.ID = ruleset.RuleID(rs.Name, rule.Name)
			}

			lang := rule.Language.Normalize()
			e, ok := snap.byLanguage[lang]
			if !ok {
				e = &entry{byID: make(map[string]ruleset.Rule)}
				snap.byLanguage[lang] = e
			}

			if _, dup := e.byID[rule.ID]; dup {
				idx := slices.IndexFunc(e.rules, func(r ruleset.Rule) bool { return r.ID == rule.ID })
				e.rules[idx] = rule
			} else {
				e.rules = append(e.rules, rule)
				snap.ruleCount++
			}
			e.byID[rule.ID] = rule
		}
	}

	return snap
}

// languages returns the cached languages sorted by wire name.
func (s *snapshot) languages() []ruleset.Language {
	langs := make([]ruleset.Language, 0, len(s.byLanguage))
	for lang := range s.byLanguage {
		langs = append(langs, lang)
	}
	slices.SortFunc(langs, func(a, b ruleset.Language) int {
		return cmp.Compare(a.WireName(), b.WireName())
	})
	return langs
}

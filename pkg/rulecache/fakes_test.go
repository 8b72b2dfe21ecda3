package rulecache_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

var errUnavailable = errors.New("service unavailable")

// fakeResolver is an in-memory project file.
type fakeResolver struct {
	mu       sync.Mutex
	exists   bool
	modTime  time.Time
	names    []string
	parseErr bool
}

func newFakeResolver(names ...string) *fakeResolver {
	return &fakeResolver{
		exists:  true,
		modTime: time.Unix(1000, 0),
		names:   names,
	}
}

func (r *fakeResolver) Find() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ".rulesync.yml", r.exists
}

func (r *fakeResolver) Read(string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.exists || r.parseErr {
		return nil, false
	}
	return slices.Clone(r.names), true
}

func (r *fakeResolver) ModTime(string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modTime, r.exists
}

// edit replaces the names and bumps the modification time.
func (r *fakeResolver) edit(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exists = true
	r.parseErr = false
	r.names = names
	r.modTime = r.modTime.Add(time.Second)
}

func (r *fakeResolver) remove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exists = false
}

func (r *fakeResolver) corrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parseErr = true
	r.modTime = r.modTime.Add(time.Second)
}

// fakeSource serves rulesets from memory and counts calls.
type fakeSource struct {
	mu            sync.Mutex
	rulesets      map[string]ruleset.Ruleset
	timestamps    map[string]int64
	rulesetsErr   error
	timestampErr  error
	rulesetCalls  [][]string
	timestampCall int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		rulesets:   make(map[string]ruleset.Ruleset),
		timestamps: make(map[string]int64),
	}
}

func (s *fakeSource) put(rs ruleset.Ruleset, timestamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rulesets[rs.Name] = rs
	s.timestamps[rs.Name] = timestamp
}

func (s *fakeSource) setErrors(rulesetsErr, timestampErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rulesetsErr = rulesetsErr
	s.timestampErr = timestampErr
}

func (s *fakeSource) Rulesets(_ context.Context, names []string) ([]ruleset.Ruleset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rulesetCalls = append(s.rulesetCalls, slices.Clone(names))
	if s.rulesetsErr != nil {
		return nil, s.rulesetsErr
	}
	var out []ruleset.Ruleset
	for _, name := range names {
		if rs, ok := s.rulesets[name]; ok {
			out = append(out, rs)
		}
	}
	return out, nil
}

func (s *fakeSource) RulesetsTimestamp(_ context.Context, names []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timestampCall++
	if s.timestampErr != nil {
		return 0, s.timestampErr
	}
	var latest int64
	for _, name := range names {
		latest = max(latest, s.timestamps[name])
	}
	return latest, nil
}

func (s *fakeSource) Analyze(context.Context, rulesource.AnalysisRequest) (*rulesource.AnalysisResponse, error) {
	return &rulesource.AnalysisResponse{}, nil
}

func (s *fakeSource) calls() (rulesetCalls int, timestampCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rulesetCalls), s.timestampCall
}

func (s *fakeSource) lastRulesetCall() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rulesetCalls) == 0 {
		return nil
	}
	return s.rulesetCalls[len(s.rulesetCalls)-1]
}

func makeRuleset(name string, lang ruleset.Language, ruleNames ...string) ruleset.Ruleset {
	rs := ruleset.Ruleset{ID: int64(len(name)), Name: name}
	for _, ruleName := range ruleNames {
		rs.Rules = append(rs.Rules, ruleset.Rule{
			ID:       ruleset.RuleID(name, ruleName),
			Name:     ruleName,
			Language: lang,
			Content:  "cmV0dXJuIFtd",
			Type:     ruleset.RuleTypeAST,
		})
	}
	return rs
}

package session_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
	"github.com/yaklabco/gorulesync/pkg/session"
)

var errAnalyzerDown = errors.New("analyzer unavailable")

func quietLogger() *log.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) session.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward, running due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// fakeRules is an in-memory RuleProvider.
type fakeRules struct {
	mu        sync.Mutex
	rules     map[ruleset.Language][]ruleset.Rule
	timestamp int64
	observers map[int]func()
	nextID    int

	// notReady makes WaitReady report a timeout.
	notReady bool
	waits    []time.Duration
}

func newFakeRules(rules ...ruleset.Rule) *fakeRules {
	r := &fakeRules{
		rules:     make(map[ruleset.Language][]ruleset.Rule),
		timestamp: 42,
		observers: make(map[int]func()),
	}
	for _, rule := range rules {
		lang := rule.Language.Normalize()
		r.rules[lang] = append(r.rules[lang], rule)
	}
	return r
}

func (r *fakeRules) RulesForLanguage(lang ruleset.Language) []ruleset.Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.rules[lang.Normalize()])
}

func (r *fakeRules) WaitReady(_ context.Context, timeout time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, timeout)
	return !r.notReady
}

func (r *fakeRules) setReady(ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notReady = !ready
}

func (r *fakeRules) readyWaits() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.waits)
}

func (r *fakeRules) Timestamp() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timestamp
}

func (r *fakeRules) Subscribe(fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.observers[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.observers, id)
	}
}

func (r *fakeRules) observerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}

// rebuild simulates a rule cache rebuild.
func (r *fakeRules) rebuild(timestamp int64) {
	r.mu.Lock()
	r.timestamp = timestamp
	fns := make([]func(), 0, len(r.observers))
	for _, fn := range r.observers {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// fakeSource records analysis requests and answers with a canned response.
type fakeSource struct {
	clock session.Clock

	mu       sync.Mutex
	resp     *rulesource.AnalysisResponse
	err      error
	requests []rulesource.AnalysisRequest
	times    []time.Time
}

func newFakeSource(clock session.Clock) *fakeSource {
	return &fakeSource{clock: clock, resp: &rulesource.AnalysisResponse{}}
}

func (s *fakeSource) Rulesets(context.Context, []string) ([]ruleset.Ruleset, error) {
	return nil, nil
}

func (s *fakeSource) RulesetsTimestamp(context.Context, []string) (int64, error) {
	return 0, nil
}

func (s *fakeSource) Analyze(_ context.Context, req rulesource.AnalysisRequest) (*rulesource.AnalysisResponse, error) {
	var now time.Time
	if s.clock != nil {
		now = s.clock.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	s.times = append(s.times, now)
	return s.resp, s.err
}

func (s *fakeSource) respond(resp *rulesource.AnalysisResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resp = resp
	s.err = err
}

func (s *fakeSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *fakeSource) lastRequest() rulesource.AnalysisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func (s *fakeSource) callTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.times)
}

func jsRule(name string) ruleset.Rule {
	return ruleset.Rule{
		ID:       ruleset.RuleID("js-security", name),
		Name:     name,
		Language: ruleset.LanguageJavaScript,
		Content:  "Y29udGVudA==",
		Type:     ruleset.RuleTypePattern,
	}
}

func violation(msg string, startLine, startCol, endLine, endCol int) ruleset.Violation {
	return ruleset.Violation{
		Message:  msg,
		Start:    ruleset.Position{Line: startLine, Col: startCol},
		End:      ruleset.Position{Line: endLine, Col: endCol},
		Severity: "warning",
		Category: "security",
	}
}

func responseOf(identifier string, violations ...ruleset.Violation) *rulesource.AnalysisResponse {
	return &rulesource.AnalysisResponse{
		RuleResponses: []rulesource.RuleViolations{
			{Identifier: identifier, Violations: violations},
		},
	}
}

// Package rulecache keeps the rules of the configured rulesets up to date
// against a remote rule source and indexes them by language.
//
// A Cache polls its ConfigResolver and its rulesource.Source on a fixed
// interval. Each tick takes exactly one of two paths: when the project file
// changed since the last tick the names are re-read and the rules refetched;
// otherwise the remote aggregate timestamp is compared with the cached one
// and the rules are refetched only when it moved. Every rebuild replaces the
// whole index at once and notifies subscribers.
package rulecache

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

// ConfigResolver locates and parses the project ruleset file.
type ConfigResolver interface {
	Find() (string, bool)
	Read(path string) ([]string, bool)
	ModTime(path string) (time.Time, bool)
}

// Cache is the process-wide language to rules index.
type Cache struct {
	resolver     ConfigResolver
	provider     rulesource.Provider
	interval     time.Duration
	readyTimeout time.Duration
	logger       *log.Logger

	snap atomic.Pointer[snapshot]

	// tickMu serializes HandleUpdate; configModTime is only touched under it.
	tickMu        sync.Mutex
	configModTime time.Time

	ready     chan struct{}
	readyOnce sync.Once
	poke      chan struct{}

	observersMu  sync.Mutex
	observers    map[uint64]func()
	nextObserver uint64

	lifecycleMu sync.Mutex
	started     bool
	closed      bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// New creates a Cache. It does nothing until HandleUpdate or Start is called.
func New(resolver ConfigResolver, provider rulesource.Provider, opts ...Option) *Cache {
	c := &Cache{
		resolver:     resolver,
		provider:     provider,
		interval:     DefaultInterval,
		readyTimeout: DefaultReadyTimeout,
		logger:       logging.Default(),
		ready:        make(chan struct{}),
		poke:         make(chan struct{}, 1),
		observers:    make(map[uint64]func()),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.WithPrefix("rulecache")
	c.snap.Store(emptySnapshot(nil))

	return c
}

// RulesForLanguage returns the rules for lang. TypeScript shares the
// JavaScript rules. The result is never nil and is safe to modify.
func (c *Cache) RulesForLanguage(lang ruleset.Language) []ruleset.Rule {
	e, ok := c.snap.Load().byLanguage[lang.Normalize()]
	if !ok {
		return []ruleset.Rule{}
	}
	return slices.Clone(e.rules)
}

// RuleByID returns the rule with the given identifier for lang.
// Identifiers taken from an analysis run against an older snapshot may
// miss after a refresh.
func (c *Cache) RuleByID(lang ruleset.Language, id string) (ruleset.Rule, bool) {
	e, ok := c.snap.Load().byLanguage[lang.Normalize()]
	if !ok {
		return ruleset.Rule{}, false
	}
	rule, ok := e.byID[id]
	return rule, ok
}

// IsEmpty reports whether no rules are cached.
func (c *Cache) IsEmpty() bool {
	return len(c.snap.Load().byLanguage) == 0
}

// Names returns the ruleset names the cache is tracking.
func (c *Cache) Names() []string {
	return slices.Clone(c.snap.Load().names)
}

// Timestamp returns the cached ruleset timestamp, or TimestampUnset.
func (c *Cache) Timestamp() int64 {
	return c.snap.Load().timestamp
}

// Languages returns the languages with cached rules, sorted by wire name.
func (c *Cache) Languages() []ruleset.Language {
	return c.snap.Load().languages()
}

// RuleCount returns the number of cached rules across all languages.
func (c *Cache) RuleCount() int {
	return c.snap.Load().ruleCount
}

// Initialized reports whether at least one update has completed.
func (c *Cache) Initialized() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the first update completes, timeout elapses or ctx
// is done. A zero timeout uses the configured ready timeout. It reports
// whether the cache is initialized.
func (c *Cache) WaitReady(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = c.readyTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.ready:
		return true
	case <-timer.C:
		return c.Initialized()
	case <-ctx.Done():
		return c.Initialized()
	}
}

// Subscribe registers fn to be called after every rebuild of the index.
// fn runs on the updating goroutine and must not block. The returned func
// removes the subscription.
func (c *Cache) Subscribe(fn func()) (unsubscribe func()) {
	c.observersMu.Lock()
	defer c.observersMu.Unlock()

	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.observersMu.Lock()
			defer c.observersMu.Unlock()
			delete(c.observers, id)
		})
	}
}

func (c *Cache) notify() {
	c.observersMu.Lock()
	fns := make([]func(), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.observersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (c *Cache) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

// Package session annotates one open document with the violations reported
// by the rule source.
//
// Edits are debounced: every NotifyEdit stamps the session and schedules a
// check after the debounce interval; the check only analyzes when no later
// edit re-stamped the session. A burst of edits therefore produces a single
// analysis, fired one interval after the last edit. Each successful analysis
// replaces the annotation list wholesale and emits TagsChanged for the whole
// document.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/langdetect"
	"github.com/yaklabco/gorulesync/pkg/position"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

// RuleProvider supplies the rules to analyze with. *rulecache.Cache
// satisfies it.
type RuleProvider interface {
	RulesForLanguage(lang ruleset.Language) []ruleset.Rule
	WaitReady(ctx context.Context, timeout time.Duration) bool
	Timestamp() int64
	Subscribe(fn func()) (unsubscribe func())
}

// TagSpan is an annotation mapped onto a queried text range.
type TagSpan struct {
	Span       position.Range
	Annotation *ruleset.Annotation
}

// TagsChanged reports that the tags within Span may have changed.
type TagsChanged struct {
	Span position.Range
}

// Session holds the annotations of one document.
type Session struct {
	doc          Document
	rules        RuleProvider
	source       rulesource.Source
	debounce     time.Duration
	readyTimeout time.Duration
	clock        Clock
	logger       *log.Logger
	language     ruleset.Language
	logOutput    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu              sync.Mutex
	annotations     []ruleset.Annotation
	lastEdit        int64
	pending         Timer
	lastCacheUpdate int64
	closed          bool

	listenersMu  sync.Mutex
	listeners    map[uint64]func(TagsChanged)
	nextListener uint64

	unsubscribe func()
}

// New opens a session for doc. The session re-analyzes whenever rules
// reports a rebuild, until Close.
func New(doc Document, rules RuleProvider, source rulesource.Source, opts ...Option) *Session {
	s := &Session{
		doc:             doc,
		rules:           rules,
		source:          source,
		debounce:        DefaultDebounce,
		readyTimeout:    DefaultReadyTimeout,
		clock:           realClock{},
		logger:          logging.Default(),
		lastCacheUpdate: -1,
		listeners:       make(map[uint64]func(TagsChanged)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.language == "" {
		s.language = langdetect.FromFilename(doc.Path(), []byte(doc.Text()))
	}

	s.logger = s.logger.With(logging.FieldPath, doc.Path(), logging.FieldLanguage, s.language)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.unsubscribe = rules.Subscribe(s.rulesChanged)

	return s
}

// Language returns the language the document is analyzed as.
func (s *Session) Language() ruleset.Language {
	return s.language
}

// Annotations returns a copy of the current annotations.
func (s *Session) Annotations() []ruleset.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.annotations)
}

// LastCacheUpdate returns the rule cache timestamp recorded by the last
// successful analysis, or -1.
func (s *Session) LastCacheUpdate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCacheUpdate
}

// Subscribe registers fn for TagsChanged events. fn may be called from any
// goroutine. The returned func removes the subscription.
func (s *Session) Subscribe(fn func(TagsChanged)) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			delete(s.listeners, id)
		})
	}
}

func (s *Session) emit(event TagsChanged) {
	s.listenersMu.Lock()
	fns := make([]func(TagsChanged), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// Close cancels any pending or in-flight analysis, drops the rule cache
// subscription and waits for background work. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.mu.Unlock()

	s.unsubscribe()
	s.cancel()
	s.wg.Wait()

	s.listenersMu.Lock()
	clear(s.listeners)
	s.listenersMu.Unlock()
}

// rulesChanged runs a background refresh after a rule cache rebuild.
func (s *Session) rulesChanged() {
	if !s.begin() {
		return
	}

	go func() {
		defer s.wg.Done()
		if err := s.analyze(s.ctx); err != nil {
			s.logger.Debug("refresh after rule update failed", logging.FieldError, err)
		}
	}()
}

// begin registers background work unless the session is closed.
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

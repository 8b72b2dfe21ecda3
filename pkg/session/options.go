package session

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// Defaults for a Session.
const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultReadyTimeout = 2 * time.Second
)

// Option configures a Session.
type Option func(*Session)

// WithDebounce sets the quiet period after the last edit before analyzing.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithReadyTimeout bounds the wait for the rule cache's first update.
func WithReadyTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.readyTimeout = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger. Defaults to logging.Default().
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLanguage skips language detection.
func WithLanguage(lang ruleset.Language) Option {
	return func(s *Session) {
		s.language = lang
	}
}

// WithLogOutput asks the analyzer for rule execution logs.
func WithLogOutput(enabled bool) Option {
	return func(s *Session) {
		s.logOutput = enabled
	}
}

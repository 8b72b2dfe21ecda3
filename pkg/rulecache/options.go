package rulecache

import (
	"time"

	"github.com/charmbracelet/log"
)

// Defaults for a Cache.
const (
	DefaultInterval     = 10 * time.Second
	DefaultReadyTimeout = 2 * time.Second
)

// Option configures a Cache.
type Option func(*Cache)

// WithInterval sets the delay between two refreshes of the poll loop.
func WithInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithReadyTimeout sets the default bound used by WaitReady when it is
// called with a zero timeout.
func WithReadyTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.readyTimeout = d
		}
	}
}

// WithLogger sets the logger. Defaults to logging.Default().
func WithLogger(logger *log.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

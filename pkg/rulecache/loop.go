package rulecache

import (
	"context"
	"time"

	"github.com/yaklabco/gorulesync/internal/logging"
)

// Start launches the poll loop. It ticks immediately, then every interval
// or on Poke, until ctx is done, Close is called or a tick reports
// UpdateNoRuleSource. Calling Start more than once has no effect.
func (c *Cache) Start(ctx context.Context) {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.started || c.closed {
		return
	}
	c.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(loopCtx)
}

func (c *Cache) run(ctx context.Context) {
	defer close(c.done)

	c.logger.Debug("poll loop started", logging.FieldInterval, c.interval)

	timer := time.NewTimer(c.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		result := c.HandleUpdate(ctx)
		c.logger.Debug("tick", logging.FieldResult, result)

		if result == UpdateNoRuleSource {
			c.logger.Info("rule source unavailable; polling stopped")
			return
		}

		timer.Reset(c.interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-c.poke:
			timer.Stop()
		}
	}
}

// Poke asks the poll loop to tick now instead of waiting for the interval.
// It never blocks; pokes during a tick are coalesced into one.
func (c *Cache) Poke() {
	select {
	case c.poke <- struct{}{}:
	default:
	}
}

// Close stops the poll loop, waits for it and clears all state.
// Subscribers are dropped. Close is idempotent.
func (c *Cache) Close() {
	c.lifecycleMu.Lock()
	if c.closed {
		c.lifecycleMu.Unlock()
		return
	}
	c.closed = true
	cancel, done := c.cancel, c.done
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	c.tickMu.Lock()
	c.snap.Store(emptySnapshot(nil))
	c.configModTime = time.Time{}
	c.tickMu.Unlock()

	c.observersMu.Lock()
	clear(c.observers)
	c.observersMu.Unlock()

	c.markReady()
}

func (c *Cache) isClosed() bool {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	return c.closed
}

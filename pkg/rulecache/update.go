package rulecache

import (
	"context"
	"slices"
	"time"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

// UpdateResult is the outcome of one update tick.
type UpdateResult int

const (
	// UpdateNoRuleSource means no source could be obtained. The cache is
	// left as-is and the poll loop stops.
	UpdateNoRuleSource UpdateResult = iota

	// UpdateNoConfigFile means the project file is absent or unusable.
	// The cache was cleared.
	UpdateNoConfigFile

	// UpdateSuccess means the tick completed, whether or not anything changed.
	UpdateSuccess
)

// String returns the result name.
func (r UpdateResult) String() string {
	switch r {
	case UpdateNoRuleSource:
		return "no-rule-source"
	case UpdateNoConfigFile:
		return "no-config-file"
	case UpdateSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// HandleUpdate runs one update tick. Calls are serialized.
func (c *Cache) HandleUpdate(ctx context.Context) UpdateResult {
	c.tickMu.Lock()
	result, rebuilt := c.update(ctx)
	c.tickMu.Unlock()

	c.markReady()

	if rebuilt {
		c.notify()
	}

	return result
}

func (c *Cache) update(ctx context.Context) (UpdateResult, bool) {
	if c.isClosed() {
		return UpdateNoRuleSource, false
	}

	src, err := c.provider()
	if err != nil || src == nil {
		c.logger.Debug("no rule source", logging.FieldError, err)
		return UpdateNoRuleSource, false
	}

	path, ok := c.resolver.Find()
	if !ok {
		c.logger.Debug("no project file")
		c.clear(nil)
		c.configModTime = time.Time{}
		return UpdateNoConfigFile, false
	}

	modTime, ok := c.resolver.ModTime(path)
	if !ok {
		c.logger.Debug("project file vanished", logging.FieldPath, path)
		c.clear(nil)
		c.configModTime = time.Time{}
		return UpdateNoConfigFile, false
	}

	if !modTime.Equal(c.configModTime) {
		return c.configChanged(ctx, src, path, modTime)
	}

	return c.serverChanged(ctx, src)
}

// configChanged re-reads the names from the project file and refetches the
// rules. The new modification time is adopted once the file has been
// handled; a failed fetch leaves it unset so the next tick retries.
func (c *Cache) configChanged(
	ctx context.Context,
	src rulesource.Source,
	path string,
	modTime time.Time,
) (UpdateResult, bool) {
	logger := c.logger.With(logging.FieldPath, path)

	names, ok := c.resolver.Read(path)
	if !ok {
		logger.Debug("project file unusable")
		c.configModTime = modTime
		c.clear(nil)
		return UpdateNoConfigFile, false
	}

	if len(names) == 0 {
		logger.Debug("project file lists no rulesets")
		c.configModTime = modTime
		c.clear(nil)
		return UpdateSuccess, false
	}

	rulesets, err := src.Rulesets(ctx, names)
	if err != nil {
		logger.Debug("fetch rulesets failed", logging.FieldRulesets, names, logging.FieldError, err)
		return UpdateSuccess, false
	}
	c.configModTime = modTime

	if len(rulesets) == 0 {
		logger.Warn("no configured ruleset was found", logging.FieldRulesets, names)
		c.clear(names)
		return UpdateSuccess, false
	}

	timestamp := c.snap.Load().timestamp
	if fetched, err := src.RulesetsTimestamp(ctx, names); err != nil {
		logger.Debug("fetch timestamp failed", logging.FieldError, err)
	} else if fetched != timestamp {
		timestamp = fetched
	}

	c.publish(buildSnapshot(names, rulesets, timestamp))
	return UpdateSuccess, true
}

// serverChanged refetches the rules when the remote timestamp moved.
func (c *Cache) serverChanged(ctx context.Context, src rulesource.Source) (UpdateResult, bool) {
	current := c.snap.Load()
	if len(current.names) == 0 {
		return UpdateSuccess, false
	}

	timestamp, err := src.RulesetsTimestamp(ctx, current.names)
	if err != nil {
		c.logger.Debug("fetch timestamp failed", logging.FieldError, err)
		return UpdateSuccess, false
	}
	if timestamp == current.timestamp {
		return UpdateSuccess, false
	}

	rulesets, err := src.Rulesets(ctx, current.names)
	if err != nil {
		c.logger.Debug("fetch rulesets failed", logging.FieldRulesets, current.names, logging.FieldError, err)
		return UpdateSuccess, false
	}

	if len(rulesets) == 0 {
		c.logger.Warn("no configured ruleset was found", logging.FieldRulesets, current.names)
		c.clear(current.names)
		return UpdateSuccess, false
	}

	c.publish(buildSnapshot(current.names, rulesets, timestamp))
	return UpdateSuccess, true
}

// clear drops every cached rule and the timestamp, keeping names.
func (c *Cache) clear(names []string) {
	current := c.snap.Load()
	if len(current.byLanguage) == 0 && current.timestamp == TimestampUnset &&
		slices.Equal(current.names, names) {
		return
	}
	c.snap.Store(emptySnapshot(names))
}

func (c *Cache) publish(snap *snapshot) {
	c.snap.Store(snap)

	langs := make([]string, 0, len(snap.byLanguage))
	for _, lang := range snap.languages() {
		langs = append(langs, lang.WireName())
	}

	c.logger.Info("rules updated",
		logging.FieldRulesets, len(snap.names),
		logging.FieldRules, snap.ruleCount,
		logging.FieldLanguages, langs,
		logging.FieldTimestamp, snap.timestamp,
	)
}


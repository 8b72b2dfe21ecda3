package rulecache_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gorulesync/internal/configloader"
	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/rulecache"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

func quietLogger() *log.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

func newCache(resolver rulecache.ConfigResolver, src rulesource.Source, opts ...rulecache.Option) *rulecache.Cache {
	opts = append([]rulecache.Option{rulecache.WithLogger(quietLogger())}, opts...)
	return rulecache.New(resolver, rulesource.Static(src), opts...)
}

func ruleIDs(rules []ruleset.Rule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestHandleUpdate_NoRuleSource(t *testing.T) {
	t.Parallel()

	provider := func() (rulesource.Source, error) { return nil, rulesource.ErrNoCredentials }
	cache := rulecache.New(newFakeResolver("python-security"), provider, rulecache.WithLogger(quietLogger()))

	assert.False(t, cache.Initialized())
	assert.Equal(t, rulecache.UpdateNoRuleSource, cache.HandleUpdate(context.Background()))
	assert.True(t, cache.Initialized())
	assert.True(t, cache.IsEmpty())
	assert.Equal(t, rulecache.TimestampUnset, cache.Timestamp())
}

func TestHandleUpdate_NoConfigFile(t *testing.T) {
	t.Parallel()

	resolver := newFakeResolver()
	resolver.remove()
	cache := newCache(resolver, newFakeSource())

	assert.Equal(t, rulecache.UpdateNoConfigFile, cache.HandleUpdate(context.Background()))
	assert.True(t, cache.IsEmpty())
	assert.Empty(t, cache.Names())
}

func TestHandleUpdate_EmptyProjectFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".rulesync.yml"), nil, 0o600))

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 101)
	cache := newCache(configloader.NewResolver(root), src)

	assert.Equal(t, rulecache.UpdateNoConfigFile, cache.HandleUpdate(context.Background()))
	assert.True(t, cache.IsEmpty())
	assert.Empty(t, cache.Names())
}

func TestHandleUpdate_IdempotentPolling(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval", "no-exec"), 101)
	src.put(makeRuleset("java-security", ruleset.LanguageJava, "no-reflection"), 99)
	cache := newCache(newFakeResolver("python-security", "java-security"), src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	python := cache.RulesForLanguage(ruleset.LanguagePython)
	java := cache.RulesForLanguage(ruleset.LanguageJava)
	names := cache.Names()
	timestamp := cache.Timestamp()
	rulesetCalls, _ := src.calls()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	assert.Equal(t, python, cache.RulesForLanguage(ruleset.LanguagePython))
	assert.Equal(t, java, cache.RulesForLanguage(ruleset.LanguageJava))
	assert.Equal(t, names, cache.Names())
	assert.Equal(t, timestamp, cache.Timestamp())
	assert.Equal(t, int64(101), cache.Timestamp())

	afterCalls, _ := src.calls()
	assert.Equal(t, rulesetCalls, afterCalls, "an unchanged tick must not refetch rules")
}

func TestHandleUpdate_ConfigChangeTakesPrecedence(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 100)
	src.put(makeRuleset("python-style", ruleset.LanguagePython, "naming"), 100)
	resolver := newFakeResolver("python-security")
	cache := newCache(resolver, src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	// Both the file and the server change before the next tick.
	resolver.edit("python-style")
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval", "no-exec"), 200)

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	assert.Equal(t, []string{"python-style"}, src.lastRulesetCall())
	assert.Equal(t, []string{"python-style"}, cache.Names())
	assert.Equal(t, []string{"python-style/naming"}, ruleIDs(cache.RulesForLanguage(ruleset.LanguagePython)))
	assert.Equal(t, int64(100), cache.Timestamp())
}

func TestHandleUpdate_ServerChange(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 100)
	cache := newCache(newFakeResolver("python-security"), src)
	ctx := context.Background()

	var notified atomic.Int32
	cache.Subscribe(func() { notified.Add(1) })

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.Equal(t, int32(1), notified.Load())

	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval", "no-exec"), 150)
	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	assert.Equal(t, int64(150), cache.Timestamp())
	assert.Equal(t,
		[]string{"python-security/no-eval", "python-security/no-exec"},
		ruleIDs(cache.RulesForLanguage(ruleset.LanguagePython)))
	assert.Equal(t, int32(2), notified.Load())

	// Nothing moved: no notification.
	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.Equal(t, int32(2), notified.Load())
}

func TestHandleUpdate_ServerTimestampErrorIsNoOp(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 100)
	cache := newCache(newFakeResolver("python-security"), src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	src.setErrors(nil, errUnavailable)

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.Equal(t, int64(100), cache.Timestamp())
	assert.Len(t, cache.RulesForLanguage(ruleset.LanguagePython), 1)
}

func TestHandleUpdate_TypeScriptNormalization(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("js-security", ruleset.LanguageJavaScript, "no-eval"), 1)
	src.put(makeRuleset("ts-security", ruleset.LanguageTypeScript, "no-any"), 1)
	cache := newCache(newFakeResolver("js-security", "ts-security"), src)

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(context.Background()))

	js := cache.RulesForLanguage(ruleset.LanguageJavaScript)
	ts := cache.RulesForLanguage(ruleset.LanguageTypeScript)
	assert.Equal(t, js, ts)
	assert.Equal(t, []string{"js-security/no-eval", "ts-security/no-any"}, ruleIDs(ts))

	rule, ok := cache.RuleByID(ruleset.LanguageTypeScript, "ts-security/no-any")
	require.True(t, ok)
	assert.Equal(t, "no-any", rule.Name)
	assert.Equal(t, []ruleset.Language{ruleset.LanguageJavaScript}, cache.Languages())
}

func TestHandleUpdate_ClearsOnDeletion(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 100)
	resolver := newFakeResolver("python-security")
	cache := newCache(resolver, src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	require.False(t, cache.IsEmpty())

	resolver.remove()
	assert.Equal(t, rulecache.UpdateNoConfigFile, cache.HandleUpdate(ctx))

	assert.True(t, cache.IsEmpty())
	assert.Empty(t, cache.Names())
	assert.Equal(t, rulecache.TimestampUnset, cache.Timestamp())
	assert.Empty(t, cache.RulesForLanguage(ruleset.LanguagePython))
	assert.NotNil(t, cache.RulesForLanguage(ruleset.LanguagePython))

	// Recreating the file with the old content reloads it.
	resolver.edit("python-security")
	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.False(t, cache.IsEmpty())
}

func TestHandleUpdate_InvalidConfigClears(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 100)
	resolver := newFakeResolver("python-security")
	cache := newCache(resolver, src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	resolver.corrupt()
	assert.Equal(t, rulecache.UpdateNoConfigFile, cache.HandleUpdate(ctx))
	assert.True(t, cache.IsEmpty())
	assert.Equal(t, rulecache.TimestampUnset, cache.Timestamp())

	// The broken file is not re-read while it stays unchanged.
	rulesetCalls, _ := src.calls()
	assert.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	afterCalls, _ := src.calls()
	assert.Equal(t, rulesetCalls, afterCalls)
}

func TestHandleUpdate_EmptyNameListClears(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 100)
	resolver := newFakeResolver("python-security")
	cache := newCache(resolver, src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	resolver.edit()
	assert.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.True(t, cache.IsEmpty())
	assert.Empty(t, cache.Names())
}

func TestHandleUpdate_FetchFailureKeepsPreviousRules(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 100)
	src.put(makeRuleset("python-style", ruleset.LanguagePython, "naming"), 100)
	resolver := newFakeResolver("python-security")
	cache := newCache(resolver, src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	resolver.edit("python-style")
	src.setErrors(errUnavailable, nil)

	assert.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.Equal(t, []string{"python-security/no-eval"}, ruleIDs(cache.RulesForLanguage(ruleset.LanguagePython)))
	assert.Equal(t, []string{"python-security"}, cache.Names())

	// The next tick retries the changed file.
	src.setErrors(nil, nil)
	assert.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.Equal(t, []string{"python-style/naming"}, ruleIDs(cache.RulesForLanguage(ruleset.LanguagePython)))
}

func TestHandleUpdate_UnknownRulesetsClear(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 100)
	resolver := newFakeResolver("python-security")
	cache := newCache(resolver, src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	resolver.edit("missing-ruleset")
	assert.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.True(t, cache.IsEmpty())
	assert.Equal(t, rulecache.TimestampUnset, cache.Timestamp())
	assert.Equal(t, []string{"missing-ruleset"}, cache.Names())

	// Publishing the ruleset later is picked up by the server path.
	src.put(makeRuleset("missing-ruleset", ruleset.LanguageGo, "no-panic"), 300)
	assert.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.Len(t, cache.RulesForLanguage(ruleset.LanguageGo), 1)
	assert.Equal(t, int64(300), cache.Timestamp())
}

func TestHandleUpdate_FullReplacement(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("ruleset-a", ruleset.LanguagePython, "a1", "a2", "a3"), 101)
	src.put(makeRuleset("ruleset-b", ruleset.LanguagePython, "b1", "b2"), 102)
	resolver := newFakeResolver("ruleset-a")
	cache := newCache(resolver, src)
	ctx := context.Background()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))
	assert.Len(t, cache.RulesForLanguage(ruleset.LanguagePython), 3)
	assert.Equal(t, int64(101), cache.Timestamp())

	resolver.edit("ruleset-b")
	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(ctx))

	assert.Equal(t, []string{"ruleset-b/b1", "ruleset-b/b2"}, ruleIDs(cache.RulesForLanguage(ruleset.LanguagePython)))
	assert.Equal(t, int64(102), cache.Timestamp())
	assert.Equal(t, 2, cache.RuleCount())

	_, ok := cache.RuleByID(ruleset.LanguagePython, "ruleset-a/a1")
	assert.False(t, ok)
}

func TestRulesForLanguage_ReturnsCopy(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 1)
	cache := newCache(newFakeResolver("python-security"), src)
	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(context.Background()))

	rules := cache.RulesForLanguage(ruleset.LanguagePython)
	rules[0].Name = "mutated"

	assert.Equal(t, "no-eval", cache.RulesForLanguage(ruleset.LanguagePython)[0].Name)
}

func TestRuleIDFilledFromNames(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	rs := makeRuleset("python-security", ruleset.LanguagePython, "no-eval")
	rs.Rules[0].ID = ""
	src.put(rs, 1)
	cache := newCache(newFakeResolver("python-security"), src)
	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(context.Background()))

	_, ok := cache.RuleByID(ruleset.LanguagePython, "python-security/no-eval")
	assert.True(t, ok)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 1)
	cache := newCache(newFakeResolver("python-security"), src)

	var calls atomic.Int32
	unsubscribe := cache.Subscribe(func() { calls.Add(1) })
	unsubscribe()
	unsubscribe()

	require.Equal(t, rulecache.UpdateSuccess, cache.HandleUpdate(context.Background()))
	assert.Zero(t, calls.Load())
}

func TestWaitReady(t *testing.T) {
	t.Parallel()

	cache := newCache(newFakeResolver(), newFakeSource(), rulecache.WithReadyTimeout(20*time.Millisecond))

	start := time.Now()
	assert.False(t, cache.WaitReady(context.Background(), 0))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, cache.WaitReady(ctx, time.Minute))

	cache.HandleUpdate(context.Background())
	assert.True(t, cache.WaitReady(context.Background(), time.Millisecond))
}

func TestStart_PollsAndPokes(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 1)
	resolver := newFakeResolver("python-security")
	cache := newCache(resolver, src, rulecache.WithInterval(time.Hour))
	t.Cleanup(cache.Close)

	cache.Start(context.Background())
	cache.Start(context.Background())

	require.True(t, cache.WaitReady(context.Background(), 5*time.Second))
	require.Eventually(t, func() bool { return !cache.IsEmpty() }, 5*time.Second, 5*time.Millisecond)

	resolver.edit()
	cache.Poke()

	assert.Eventually(t, cache.IsEmpty, 5*time.Second, 5*time.Millisecond)
}

func TestStart_StopsWithoutRuleSource(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	provider := func() (rulesource.Source, error) {
		calls.Add(1)
		return nil, rulesource.ErrNoCredentials
	}
	cache := rulecache.New(newFakeResolver("python-security"), provider,
		rulecache.WithLogger(quietLogger()),
		rulecache.WithInterval(time.Millisecond))

	cache.Start(context.Background())
	require.True(t, cache.WaitReady(context.Background(), 5*time.Second))

	cache.Poke()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cache.Close()
}

func TestClose(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.put(makeRuleset("python-security", ruleset.LanguagePython, "no-eval"), 1)
	cache := newCache(newFakeResolver("python-security"), src, rulecache.WithInterval(time.Millisecond))

	var calls atomic.Int32
	cache.Subscribe(func() { calls.Add(1) })

	cache.Start(context.Background())
	require.Eventually(t, func() bool { return !cache.IsEmpty() }, 5*time.Second, 5*time.Millisecond)

	cache.Close()
	cache.Close()

	assert.True(t, cache.IsEmpty())
	assert.Empty(t, cache.Names())
	assert.Equal(t, rulecache.UpdateNoRuleSource, cache.HandleUpdate(context.Background()))

	// Start after Close is a no-op.
	cache.Start(context.Background())
	assert.True(t, cache.IsEmpty())
}

func TestUpdateResultString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no-rule-source", rulecache.UpdateNoRuleSource.String())
	assert.Equal(t, "no-config-file", rulecache.UpdateNoConfigFile.String())
	assert.Equal(t, "success", rulecache.UpdateSuccess.String())
	assert.Equal(t, "unknown", rulecache.UpdateResult(42).String())
}

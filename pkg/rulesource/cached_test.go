package rulesource_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

type countingSource struct {
	analyses  atomic.Int32
	cancelled atomic.Bool
	release   chan struct{}
}

func (s *countingSource) Rulesets(context.Context, []string) ([]ruleset.Ruleset, error) {
	return nil, nil
}

func (s *countingSource) RulesetsTimestamp(context.Context, []string) (int64, error) {
	return 42, nil
}

func (s *countingSource) Analyze(ctx context.Context, _ rulesource.AnalysisRequest) (*rulesource.AnalysisResponse, error) {
	s.analyses.Add(1)
	if s.release != nil {
		<-s.release
	}
	if ctx.Err() != nil {
		s.cancelled.Store(true)
		return nil, ctx.Err()
	}
	return &rulesource.AnalysisResponse{}, nil
}

func sampleRequest(code string) rulesource.AnalysisRequest {
	return rulesource.AnalysisRequest{
		Filename:   "main.py",
		Language:   "python",
		CodeBase64: code,
		Rules: []rulesource.AnalysisRule{{
			ID:            "python-security/no-eval",
			ContentBase64: "Ym9keQ==",
			Variables:     map[string]string{"b": "2", "a": "1"},
		}},
	}
}

func TestCachedSource_MemoizesByContent(t *testing.T) {
	t.Parallel()

	next := &countingSource{}
	cached, err := rulesource.NewCachedSource(next, 8)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := cached.Analyze(ctx, sampleRequest("YQ=="))
	require.NoError(t, err)
	second, err := cached.Analyze(ctx, sampleRequest("YQ=="))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), next.analyses.Load())

	_, err = cached.Analyze(ctx, sampleRequest("Yg=="))
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.analyses.Load())
	assert.Equal(t, 2, cached.Len())

	cached.Purge()
	assert.Equal(t, 0, cached.Len())
}

func TestCachedSource_CollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	next := &countingSource{release: make(chan struct{})}
	cached, err := rulesource.NewCachedSource(next, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.Analyze(context.Background(), sampleRequest("YQ=="))
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return next.analyses.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.release)
	wg.Wait()

	assert.Equal(t, int32(1), next.analyses.Load())
}

func TestCachedSource_CancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	next := &countingSource{release: make(chan struct{})}
	cached, err := rulesource.NewCachedSource(next, 8)
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached.Analyze(firstCtx, sampleRequest("YQ=="))
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return next.analyses.Load() == 1 }, time.Second, time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		resp, err := cached.Analyze(context.Background(), sampleRequest("YQ=="))
		if err == nil && resp == nil {
			err = errors.New("nil response")
		}
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(next.release)
	require.NoError(t, <-secondErr)
	assert.False(t, next.cancelled.Load())
	assert.Equal(t, int32(1), next.analyses.Load())
	assert.Equal(t, 1, cached.Len())
}

func TestCachedSource_PassesThroughRulesetQueries(t *testing.T) {
	t.Parallel()

	cached, err := rulesource.NewCachedSource(&countingSource{}, 0)
	require.NoError(t, err)

	ts, err := cached.RulesetsTimestamp(context.Background(), []string{"abcde"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}

func TestAnalysisKey(t *testing.T) {
	t.Parallel()

	base := sampleRequest("YQ==")
	assert.Equal(t, rulesource.AnalysisKey(base), rulesource.AnalysisKey(sampleRequest("YQ==")))

	changedRule := sampleRequest("YQ==")
	changedRule.Rules[0].ContentBase64 = "b3RoZXI="
	assert.NotEqual(t, rulesource.AnalysisKey(base), rulesource.AnalysisKey(changedRule))

	changedLanguage := sampleRequest("YQ==")
	changedLanguage.Language = "javascript"
	assert.NotEqual(t, rulesource.AnalysisKey(base), rulesource.AnalysisKey(changedLanguage))
}

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	_, err := rulesource.Static(nil)()
	require.ErrorIs(t, err, rulesource.ErrNoCredentials)

	src := &countingSource{}
	got, err := rulesource.Static(src)()
	require.NoError(t, err)
	assert.Same(t, src, got)
}

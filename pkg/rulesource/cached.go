package rulesource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"slices"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// DefaultAnalysisCacheSize is the number of analysis responses kept by a
// CachedSource when no size is given.
const DefaultAnalysisCacheSize = 256

// CachedSource memoizes analyses by a hash of their full request and
// collapses identical concurrent analyses into a single remote call.
// Ruleset queries are passed through untouched.
//
// Cached responses are shared between callers and must not be mutated.
type CachedSource struct {
	next     Source
	analyses *lru.Cache[string, *AnalysisResponse]
	inflight singleflight.Group
}

// Compile-time interface check.
var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps next with an analysis cache holding size entries.
func NewCachedSource(next Source, size int) (*CachedSource, error) {
	if size <= 0 {
		size = DefaultAnalysisCacheSize
	}

	analyses, err := lru.New[string, *AnalysisResponse](size)
	if err != nil {
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}

	return &CachedSource{
		next:     next,
		analyses: analyses,
	}, nil
}

// CachedProvider wraps every Source obtained from provider in a CachedSource.
func CachedProvider(provider Provider, size int) Provider {
	return func() (Source, error) {
		src, err := provider()
		if err != nil {
			return nil, err
		}
		return NewCachedSource(src, size)
	}
}

// Rulesets implements Source.
func (c *CachedSource) Rulesets(ctx context.Context, names []string) ([]ruleset.Ruleset, error) {
	return c.next.Rulesets(ctx, names)
}

// RulesetsTimestamp implements Source.
func (c *CachedSource) RulesetsTimestamp(ctx context.Context, names []string) (int64, error) {
	return c.next.RulesetsTimestamp(ctx, names)
}

// Analyze implements Source.
func (c *CachedSource) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	key := AnalysisKey(req)
	if resp, ok := c.analyses.Get(key); ok {
		return resp, nil
	}

	// The shared call outlives any single caller; each caller stops
	// waiting on its own context.
	ch := c.inflight.DoChan(key, func() (any, error) {
		if resp, ok := c.analyses.Get(key); ok {
			return resp, nil
		}
		resp, err := c.next.Analyze(context.WithoutCancel(ctx), req)
		if err != nil {
			return nil, err
		}
		c.analyses.Add(key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp, _ := res.Val.(*AnalysisResponse)
		return resp, nil
	}
}

// Len returns the number of cached analyses.
func (c *CachedSource) Len() int {
	return c.analyses.Len()
}

// Purge drops every cached analysis.
func (c *CachedSource) Purge() {
	c.analyses.Purge()
}

// AnalysisKey returns a content hash identifying an analysis request.
// Two requests share a key only if the document, its language, and every
// rule body are identical.
func AnalysisKey(req AnalysisRequest) string {
	h := sha256.New()
	writeField(h, req.Filename)
	writeField(h, req.Language)
	writeField(h, req.FileEncoding)
	writeField(h, req.CodeBase64)
	writeField(h, strconv.FormatBool(req.LogOutput))

	for _, rule := range req.Rules {
		writeField(h, rule.ID)
		writeField(h, rule.ContentBase64)
		writeField(h, rule.Language)
		writeField(h, rule.Type)
		writeField(h, rule.EntityChecked)
		writeField(h, rule.Pattern)

		keys := make([]string, 0, len(rule.Variables))
		for k := range rule.Variables {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			writeField(h, k)
			writeField(h, rule.Variables[k])
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, value string) {
	h.Write([]byte(strconv.Itoa(len(value))))
	h.Write([]byte{':'})
	h.Write([]byte(value))
}

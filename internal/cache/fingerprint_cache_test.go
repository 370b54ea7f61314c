package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowforge/internal/cache"
	"flowforge/internal/domain"
)

func setupTestCache(t *testing.T) (*cache.FingerprintCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return cache.NewFingerprintCache(client, time.Hour), mr
}

func sampleBatch(name string) *domain.ParseBatchResult {
	return &domain.ParseBatchResult{
		MultipleProcesses: false,
		ProcessCount:      1,
		Processes: []domain.ParsedProcess{{
			Name:  name,
			Nodes: []domain.Node{{ID: "n1", Type: domain.NodeTypeStep, Title: "Do it"}},
		}},
		Meta: &domain.ParseMeta{Mode: domain.ParseModeSingle, Fingerprint: "abc"},
	}
}

func TestFingerprint_Normalizes(t *testing.T) {
	assert.Equal(t, cache.Fingerprint("foo bar"), cache.Fingerprint(" Foo  Bar "))
	assert.Equal(t, cache.Fingerprint("a\n\tb"), cache.Fingerprint("A B"))
	assert.Len(t, cache.Fingerprint("anything"), 16)
	assert.NotEqual(t, cache.Fingerprint("foo"), cache.Fingerprint("bar"))
}

func TestPatternKey_Buckets(t *testing.T) {
	assert.Equal(t, "analysis:pattern:0w:0c", cache.PatternKey("short text"))

	var words []byte
	for i := 0; i < 150; i++ {
		words = append(words, "word "...)
	}
	// 150 words, 750 chars
	assert.Equal(t, "analysis:pattern:100w:500c", cache.PatternKey(string(words)))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "analysis:exact:0123456789abcdef", cache.ExactKey("0123456789abcdef"))
	assert.Equal(t, "parse:chat:0123456789abcdef", cache.ParseKey(domain.InputTypeChat, "0123456789abcdef"))
}

func TestLookup_MissThenParseHit(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()
	text := "Standard Requisition Process body text"

	_, tier, ok := c.Lookup(ctx, text, domain.InputTypeDocument)
	assert.False(t, ok)
	assert.Equal(t, domain.CacheTierNone, tier)

	c.Store(ctx, text, domain.InputTypeDocument, sampleBatch("Requisition"))

	got, tier, ok := c.Lookup(ctx, text, domain.InputTypeDocument)
	require.True(t, ok)
	assert.Equal(t, domain.CacheTierParse, tier)
	assert.Equal(t, "Requisition", got.Processes[0].Name)
	assert.Nil(t, got.Meta)

	fp := cache.Fingerprint(text)
	assert.True(t, mr.Exists(cache.ExactKey(fp)))
	assert.True(t, mr.Exists(cache.ParseKey(domain.InputTypeDocument, fp)))
	assert.Equal(t, time.Hour, mr.TTL(cache.ExactKey(fp)))
	assert.Equal(t, 30*time.Minute, mr.TTL(cache.PatternKey(text)))
}

func TestLookup_ExactTierAcrossInputTypes(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()
	text := "Onboarding Process for casual staff"

	c.Store(ctx, text, domain.InputTypeDocument, sampleBatch("Onboarding"))

	_, tier, ok := c.Lookup(ctx, "  onboarding   PROCESS for casual staff", domain.InputTypeChat)
	require.True(t, ok)
	assert.Equal(t, domain.CacheTierExact, tier)
}

func TestLookup_PatternTierIsApproximate(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	c.Store(ctx, "alpha beta gamma", domain.InputTypeDocument, sampleBatch("Alpha"))

	got, tier, ok := c.Lookup(ctx, "delta epsilon zeta", domain.InputTypeDocument)
	require.True(t, ok)
	assert.Equal(t, domain.CacheTierPattern, tier)
	assert.True(t, tier.Approximate())
	assert.Equal(t, "Alpha", got.Processes[0].Name)
}

func TestStore_ExactIsWriteOncePatternIsLastWriteWins(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()
	text := "same document text"

	c.Store(ctx, text, domain.InputTypeDocument, sampleBatch("First"))
	c.Store(ctx, text, domain.InputTypeDocument, sampleBatch("Second"))

	exact, err := mr.Get(cache.ExactKey(cache.Fingerprint(text)))
	require.NoError(t, err)
	assert.Contains(t, exact, "First")

	pattern, err := mr.Get(cache.PatternKey(text))
	require.NoError(t, err)
	assert.Contains(t, pattern, "Second")
}

func TestStore_SkipsEmptyResult(t *testing.T) {
	c, mr := setupTestCache(t)

	c.Store(context.Background(), "text", domain.InputTypeDocument, &domain.ParseBatchResult{})

	assert.Empty(t, mr.Keys())
}

func TestStats(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()
	text := "stats document"

	c.Lookup(ctx, text, domain.InputTypeDocument)
	c.Store(ctx, text, domain.InputTypeDocument, sampleBatch("S"))
	c.Lookup(ctx, text, domain.InputTypeDocument)
	c.Lookup(ctx, text, domain.InputTypeChat)
	c.Lookup(ctx, "other words here", domain.InputTypeChat)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), stats.Date)
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 75.0, stats.HitRate)
	assert.Equal(t, int64(3), stats.APICallsSaved)
	assert.Equal(t, int64(1), stats.Breakdown.Parse)
	assert.Equal(t, int64(1), stats.Breakdown.Exact)
	assert.Equal(t, int64(1), stats.Breakdown.Pattern)
}

func TestClear(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	c.Store(ctx, "one", domain.InputTypeDocument, sampleBatch("One"))
	c.Lookup(ctx, "one", domain.InputTypeDocument)

	n, err := c.Clear(ctx, "")
	require.NoError(t, err)
	// parse, exact, pattern
	assert.Equal(t, 3, n)

	_, _, ok := c.Lookup(ctx, "one", domain.InputTypeDocument)
	assert.False(t, ok)
	assert.NotEmpty(t, mr.Keys(), "stats counters survive a clear")
}

func TestClear_Pattern(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	c.Store(ctx, "one", domain.InputTypeDocument, sampleBatch("One"))

	n, err := c.Clear(ctx, "parse:*")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, mr.Exists(cache.ExactKey(cache.Fingerprint("one"))))
}

func TestNilClient_Degrades(t *testing.T) {
	c := cache.NewFingerprintCache(nil, 0)
	ctx := context.Background()

	c.Store(ctx, "text", domain.InputTypeDocument, sampleBatch("X"))
	_, _, ok := c.Lookup(ctx, "text", domain.InputTypeDocument)
	assert.False(t, ok)

	_, err := c.Stats(ctx)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	assert.ErrorIs(t, c.Ping(ctx), domain.ErrCacheUnavailable)
}

func TestBackingStoreDown_Degrades(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	mr.Close()

	assert.NotPanics(t, func() {
		c.Store(ctx, "text", domain.InputTypeDocument, sampleBatch("X"))
	})
	_, _, ok := c.Lookup(ctx, "text", domain.InputTypeDocument)
	assert.False(t, ok)
	assert.ErrorIs(t, c.Ping(ctx), domain.ErrCacheUnavailable)
}

func TestBackingStoreRecovers(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	mr.Close()
	_, _, ok := c.Lookup(ctx, "text", domain.InputTypeDocument)
	require.False(t, ok)
	require.ErrorIs(t, c.Ping(ctx), domain.ErrCacheUnavailable)

	require.NoError(t, mr.Restart())
	require.Eventually(t, func() bool { return c.Ping(ctx) == nil }, 2*time.Second, 20*time.Millisecond)

	c.Store(ctx, "text", domain.InputTypeDocument, sampleBatch("Recovered"))
	got, tier, ok := c.Lookup(ctx, "text", domain.InputTypeDocument)
	require.True(t, ok)
	assert.Equal(t, domain.CacheTierParse, tier)
	assert.Equal(t, "Recovered", got.Processes[0].Name)
}

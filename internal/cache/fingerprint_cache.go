// Package cache implements the Redis-backed parse result cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"flowforge/internal/domain"
	"flowforge/internal/metrics"
	"flowforge/internal/port"
)

var _ port.ParseCache = (*FingerprintCache)(nil)

const (
	// DefaultTTL applies to exact entries; pattern entries live half as long.
	DefaultTTL = 24 * time.Hour

	hitsKeyPrefix   = "stats:cache_hits:"
	missesKeyPrefix = "stats:cache_misses:"
	statsTTL        = 7 * 24 * time.Hour
	scanBatch       = 100
)

// FingerprintCache stores ParseBatchResults under three keys per document:
// an input-type scoped parse key, an exact content key and a coarse pattern key.
// A nil client turns every operation into a miss or a dropped write.
type FingerprintCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewFingerprintCache creates a cache over client. A zero ttl uses DefaultTTL.
func NewFingerprintCache(client *redis.Client, ttl time.Duration) *FingerprintCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FingerprintCache{client: client, ttl: ttl, now: time.Now}
}

// Get returns the raw value at key. Errors other than a miss are logged and
// reported as a miss.
func (c *FingerprintCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Printf("cache.FingerprintCache.Get: %s: %v", key, err)
		metrics.RecordCacheError("get")
		return nil, false
	}
	return data, true
}

// Set writes value at key. With onlyIfAbsent the write never replaces an
// existing entry. Errors are logged and dropped.
func (c *FingerprintCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, onlyIfAbsent bool) {
	if c.client == nil {
		return
	}
	var err error
	if onlyIfAbsent {
		err = c.client.SetNX(ctx, key, value, ttl).Err()
	} else {
		err = c.client.Set(ctx, key, value, ttl).Err()
	}
	if err != nil {
		log.Printf("cache.FingerprintCache.Set: %s: %v", key, err)
		metrics.RecordCacheError("set")
	}
}

// Lookup consults the parse, exact and pattern tiers in that order.
func (c *FingerprintCache) Lookup(ctx context.Context, text string, inputType domain.InputType) (*domain.ParseBatchResult, domain.CacheTier, bool) {
	if c.client == nil {
		metrics.RecordCacheLookup("miss")
		return nil, domain.CacheTierNone, false
	}

	fp := Fingerprint(text)
	tiers := []struct {
		tier domain.CacheTier
		key  string
	}{
		{domain.CacheTierParse, ParseKey(inputType, fp)},
		{domain.CacheTierExact, ExactKey(fp)},
		{domain.CacheTierPattern, PatternKey(text)},
	}

	for _, t := range tiers {
		data, ok := c.Get(ctx, t.key)
		if !ok {
			continue
		}
		var result domain.ParseBatchResult
		if err := json.Unmarshal(data, &result); err != nil {
			log.Printf("cache.FingerprintCache.Lookup: corrupt entry %s: %v", t.key, err)
			continue
		}
		if len(result.Processes) == 0 {
			continue
		}
		c.recordHit(ctx, t.tier)
		return &result, t.tier, true
	}

	c.recordMiss(ctx)
	return nil, domain.CacheTierNone, false
}

// Store writes result under all three keys. Meta is request-specific and is
// not persisted.
func (c *FingerprintCache) Store(ctx context.Context, text string, inputType domain.InputType, result *domain.ParseBatchResult) {
	if c.client == nil || result == nil || len(result.Processes) == 0 {
		return
	}

	stored := *result
	stored.Meta = nil
	data, err := json.Marshal(&stored)
	if err != nil {
		log.Printf("cache.FingerprintCache.Store: marshal: %v", err)
		return
	}

	fp := Fingerprint(text)
	pipe := c.client.Pipeline()
	pipe.SetNX(ctx, ParseKey(inputType, fp), data, c.ttl)
	pipe.SetNX(ctx, ExactKey(fp), data, c.ttl)
	pipe.Set(ctx, PatternKey(text), data, c.ttl/2)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("cache.FingerprintCache.Store: %s: %v", fp, err)
		metrics.RecordCacheError("store")
	}
}

// Stats returns today's (UTC) hit and miss counters.
func (c *FingerprintCache) Stats(ctx context.Context) (*domain.CacheStats, error) {
	if c.client == nil {
		return nil, domain.ErrCacheUnavailable
	}

	date := c.today()
	hits, err := c.client.HGetAll(ctx, hitsKeyPrefix+date).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	misses, err := c.client.HGetAll(ctx, missesKeyPrefix+date).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	stats := &domain.CacheStats{
		Date:   date,
		Hits:   field(hits, "total"),
		Misses: field(misses, "total"),
		Breakdown: domain.CacheBreakdown{
			Exact:   field(hits, string(domain.CacheTierExact)),
			Pattern: field(hits, string(domain.CacheTierPattern)),
			Parse:   field(hits, string(domain.CacheTierParse)),
		},
	}
	stats.APICallsSaved = stats.Hits
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = math.Round(float64(stats.Hits)/float64(total)*10000) / 100
	}
	return stats, nil
}

// Clear deletes every key matching pattern. An empty pattern clears all
// analysis and parse entries but keeps the stats counters.
func (c *FingerprintCache) Clear(ctx context.Context, pattern string) (int, error) {
	if c.client == nil {
		return 0, domain.ErrCacheUnavailable
	}

	patterns := []string{pattern}
	if pattern == "" {
		patterns = []string{exactPrefix + "*", patternPrefix + "*", parsePrefix + "*"}
	}

	deleted := 0
	for _, p := range patterns {
		var cursor uint64
		for {
			keys, next, err := c.client.Scan(ctx, cursor, p, scanBatch).Result()
			if err != nil {
				return deleted, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
			}
			if len(keys) > 0 {
				n, err := c.client.Del(ctx, keys...).Result()
				if err != nil {
					return deleted, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
				}
				deleted += int(n)
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}

	log.Printf("cache.FingerprintCache.Clear: removed %d keys", deleted)
	return deleted, nil
}

// Ping reports whether the backing store is reachable.
func (c *FingerprintCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return domain.ErrCacheUnavailable
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (c *FingerprintCache) recordHit(ctx context.Context, tier domain.CacheTier) {
	metrics.RecordCacheLookup(string(tier))
	key := hitsKeyPrefix + c.today()
	pipe := c.client.Pipeline()
	pipe.HIncrBy(ctx, key, string(tier), 1)
	pipe.HIncrBy(ctx, key, "total", 1)
	pipe.Expire(ctx, key, statsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("cache.FingerprintCache.recordHit: %v", err)
	}
}

func (c *FingerprintCache) recordMiss(ctx context.Context) {
	metrics.RecordCacheLookup("miss")
	key := missesKeyPrefix + c.today()
	pipe := c.client.Pipeline()
	pipe.HIncrBy(ctx, key, "total", 1)
	pipe.Expire(ctx, key, statsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("cache.FingerprintCache.recordMiss: %v", err)
	}
}

func (c *FingerprintCache) today() string {
	return c.now().UTC().Format("2006-01-02")
}

func field(m map[string]string, name string) int64 {
	n, _ := strconv.ParseInt(m[name], 10, 64)
	return n
}

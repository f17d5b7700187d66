package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// TTLSearchCacheRepo is a read-mostly SearchCacheRepo backed by an
// in-process TTL cache, with per-key single-flight so concurrent requests
// for the same key cause only one underlying computation (spec.md §5).
type TTLSearchCacheRepo struct {
	cache *gocache.Cache
	group singleflight.Group
}

// NewTTLSearchCacheRepo constructs a cache with the given default TTL and
// cleanup interval (config: TTL guidance 10 minutes for search results, 30
// minutes for item details — spec.md §6).
func NewTTLSearchCacheRepo(defaultTTL, cleanupInterval time.Duration) *TTLSearchCacheRepo {
	return &TTLSearchCacheRepo{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *TTLSearchCacheRepo) keyString(key SearchCacheKey) string {
	b, _ := json.Marshal(key)
	return string(b)
}

// Get returns the cached value for key, if present and unexpired.
func (c *TTLSearchCacheRepo) Get(_ context.Context, key SearchCacheKey) (any, bool, error) {
	v, ok := c.cache.Get(c.keyString(key))
	return v, ok, nil
}

// Put stores value under key with the given TTL (0 uses the cache's
// default expiration).
func (c *TTLSearchCacheRepo) Put(_ context.Context, key SearchCacheKey, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(c.keyString(key), value, ttl)
	return nil
}

// GetOrCompute resolves key through the cache, single-flighting concurrent
// identical-key misses so only one compute() call runs at a time
// (spec.md §5: "per-key single-flight").
func (c *TTLSearchCacheRepo) GetOrCompute(ctx context.Context, key SearchCacheKey, ttl time.Duration, compute func() (any, error)) (any, error) {
	if v, ok, _ := c.Get(ctx, key); ok {
		return v, nil
	}

	keyStr := c.keyString(key)
	v, err, _ := c.group.Do(keyStr, func() (any, error) {
		if v, ok, _ := c.Get(ctx, key); ok {
			return v, nil
		}
		result, err := compute()
		if err != nil {
			return nil, fmt.Errorf("computing cache value for %s: %w", keyStr, err)
		}
		_ = c.Put(ctx, key, result, ttl)
		return result, nil
	})
	return v, err
}

// AnalyzerCache is the ProductAnalyzer's read-mostly cache, keyed by ASIN
// + content-hash of source fields, TTL 30 minutes (spec.md §4.2). It is
// separate from TTLSearchCacheRepo because it keys on product content, not
// a search request.
type AnalyzerCache struct {
	cache *gocache.Cache
	group singleflight.Group
}

// NewAnalyzerCache constructs an analyzer cache with the spec's guidance
// TTL (30 minutes).
func NewAnalyzerCache() *AnalyzerCache {
	return &AnalyzerCache{cache: gocache.New(30*time.Minute, 5*time.Minute)}
}

// GetOrCompute resolves (asin, contentHash) through the cache, with
// single-flight dedupe across concurrent identical-key fills.
func (c *AnalyzerCache) GetOrCompute(asin, contentHash string, compute func() (any, error)) (any, error) {
	key := asin + ":" + contentHash
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.cache.Get(key); ok {
			return v, nil
		}
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(key, result)
		return result, nil
	})
	return v, err
}

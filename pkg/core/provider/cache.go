package provider

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"dcf_valuation/pkg/core/logging"
	"dcf_valuation/pkg/models"
)

// Cache stores serialized snapshots for a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// =============================================================================
// REDIS CACHE
// =============================================================================

// RedisCache backs the snapshot cache with Redis.
type RedisCache struct {
	client *redis.Client
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// =============================================================================
// MEMORY CACHE
// =============================================================================

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is the in-process fallback when Redis is unavailable.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// NewCache connects to Redis at redisURL, falling back to an in-memory cache
// when the URL is empty or the server does not answer a ping within 2s.
func NewCache(redisURL string) Cache {
	if redisURL == "" {
		return NewMemoryCache()
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logging.L().Warnw("invalid redis url, using memory cache", "error", err)
		return NewMemoryCache()
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.L().Warnw("redis unreachable, using memory cache", "error", err)
		return NewMemoryCache()
	}
	logging.L().Infow("snapshot cache connected", "backend", "redis")
	return &RedisCache{client: client}
}

// =============================================================================
// CACHED PROVIDER
// =============================================================================

// CachedProvider wraps a SnapshotProvider with a read-through cache.
// Fundamentals move slowly, so a generous TTL keeps repeated valuation runs
// off the upstream source.
type CachedProvider struct {
	inner SnapshotProvider
	cache Cache
	ttl   time.Duration
}

// NewCachedProvider wraps inner. A zero ttl defaults to 15 minutes.
func NewCachedProvider(inner SnapshotProvider, cache Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl}
}

func (p *CachedProvider) Name() string { return p.inner.Name() + "+cache" }

func (p *CachedProvider) Fetch(ctx context.Context, ticker string) (*models.FundamentalsSnapshot, error) {
	key := "snapshot:" + ticker
	if raw, ok := p.cache.Get(ctx, key); ok {
		var snap models.FundamentalsSnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return &snap, nil
		}
		// Corrupt entry falls through to a refetch.
	}

	snap, err := p.inner.Fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(snap); err == nil {
		if err := p.cache.Set(ctx, key, raw, p.ttl); err != nil {
			logging.L().Warnw("snapshot cache write failed", "ticker", ticker, "error", err)
		}
	}
	return snap, nil
}

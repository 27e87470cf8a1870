package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hupe1980/semanticmemory/core"
)

// CacheOptions tunes the vector cache.
type CacheOptions struct {
	// TTL bounds how long a vector is reused. Zero keeps vectors until they
	// are evicted by the janitor or the generator is dropped.
	TTL time.Duration
	// CleanupInterval controls how often expired entries are purged.
	CleanupInterval time.Duration
}

// CachedGenerator wraps a core.EmbeddingGenerator with an expiring cache for
// single-text calls (search queries, single saves). Batch calls pass through.
//
// The cache holds at most maxSize vectors. Once full, expired entries are
// purged and new texts are embedded without being cached until room frees up.
type CachedGenerator struct {
	inner   core.EmbeddingGenerator
	maxSize int
	cache   *cache.Cache

	// serializes the size check with the insert in put
	mu sync.Mutex
}

// NewCachedGenerator wraps inner with a cache of maxSize entries.
// If maxSize <= 0, inner is returned directly.
func NewCachedGenerator(inner core.EmbeddingGenerator, maxSize int, optFns ...func(o *CacheOptions)) core.EmbeddingGenerator {
	if maxSize <= 0 {
		return inner
	}

	opts := CacheOptions{
		TTL:             30 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	return &CachedGenerator{
		inner:   inner,
		maxSize: maxSize,
		cache:   cache.New(ttl, opts.CleanupInterval),
	}
}

// Embed implements core.EmbeddingGenerator.
func (c *CachedGenerator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) != 1 {
		return c.inner.Embed(ctx, texts)
	}

	if v, ok := c.cache.Get(texts[0]); ok {
		return [][]float32{copyVec(v.([]float32))}, nil
	}

	result, err := c.inner.Embed(ctx, texts)
	if err != nil || len(result) == 0 {
		return result, err
	}

	c.put(texts[0], copyVec(result[0]))

	return result, nil
}

// Len returns the number of cached vectors, including expired ones not yet
// purged.
func (c *CachedGenerator) Len() int {
	return c.cache.ItemCount()
}

// Dimensions implements core.EmbeddingGenerator.
func (c *CachedGenerator) Dimensions() int { return c.inner.Dimensions() }

// Name implements core.EmbeddingGenerator.
func (c *CachedGenerator) Name() string { return c.inner.Name() }

func (c *CachedGenerator) put(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cache.Get(key); ok {
		return
	}
	if c.cache.ItemCount() >= c.maxSize {
		c.cache.DeleteExpired()
		if c.cache.ItemCount() >= c.maxSize {
			return
		}
	}
	c.cache.SetDefault(key, vec)
}

func copyVec(v []float32) []float32 {
	cp := make([]float32, len(v))
	copy(cp, v)
	return cp
}

package opsdesk

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

// QueryCacheConfig sizes the decoded-read cache.
type QueryCacheConfig struct {
	// Capacity is the maximum number of cached reads.
	Capacity int `json:"capacity" yaml:"capacity"`

	// NumShards spreads entries over independently locked shards.
	NumShards int `json:"num_shards" yaml:"num_shards"`

	// TTL is how long a successful read is served without refetching.
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// EvictionPercentage is the share of entries dropped when the cache is full (1-100).
	EvictionPercentage int `json:"eviction_percentage" yaml:"eviction_percentage"`

	// EvictionInterval overrides how often expired entries are swept. Zero keeps the default.
	EvictionInterval time.Duration `json:"eviction_interval,omitempty" yaml:"eviction_interval,omitempty"`
}

// DefaultQueryCacheConfig returns the default query cache sizing.
func DefaultQueryCacheConfig() QueryCacheConfig {
	return QueryCacheConfig{
		Capacity:           constants.DefaultQueryCacheCapacity,
		NumShards:          constants.DefaultQueryCacheShards,
		TTL:                constants.DefaultQueryCacheTTL,
		EvictionPercentage: constants.DefaultEvictionPercentage,
	}
}

// Validate checks the configuration before it reaches sturdyc, which panics on bad values.
func (c QueryCacheConfig) Validate() error {
	return ToValidationError(validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1), validation.Max(c.Capacity)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
	))
}

// QueryCache holds decoded read results keyed by canonical CacheKey strings.
// Concurrent fetches of the same key share one in-flight call, and every
// waiter observes the same value or error.
type QueryCache struct {
	client     *sturdyc.Client[any]
	logger     Logger
	generation atomic.Uint64
}

// NewQueryCache creates a query cache. A nil logger discards log output.
func NewQueryCache(config QueryCacheConfig, logger Logger) (*QueryCache, error) {
	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid query cache config: %w", err)
	}

	if logger == nil {
		logger = NopLogger{}
	}

	var options []sturdyc.Option
	if config.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(config.EvictionInterval))
	}

	client := sturdyc.New[any](
		config.Capacity,
		config.NumShards,
		config.TTL,
		config.EvictionPercentage,
		options...,
	)

	return &QueryCache{client: client, logger: logger}, nil
}

// GetOrFetch returns the value cached under key or runs fetch to produce it.
// Errors are never cached. A result whose fetch overlapped an invalidation is
// handed to the waiters but not kept.
func GetOrFetch[T any](ctx context.Context, cache *QueryCache, key CacheKey, fetch func(context.Context) (T, error)) (T, error) {
	canonical := key.String()
	generation := cache.generation.Load()

	value, err := cache.client.GetOrFetch(ctx, canonical, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})

	if cache.generation.Load() != generation {
		cache.client.Delete(canonical)
	}

	if err != nil {
		var zero T

		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		var zero T

		cache.client.Delete(canonical)

		return zero, fmt.Errorf("%w: %s holds %T", ErrCachedTypeMismatch, canonical, value)
	}

	return typed, nil
}

// Peek returns the cached value for key without fetching.
func Peek[T any](cache *QueryCache, key CacheKey) (T, bool) {
	var zero T

	value, ok := cache.client.Get(key.String())
	if !ok {
		return zero, false
	}

	typed, ok := value.(T)
	if !ok {
		return zero, false
	}

	return typed, true
}

// Invalidate drops the given keys so the next read refetches them.
func (c *QueryCache) Invalidate(keys ...CacheKey) {
	c.generation.Add(1)

	for _, key := range keys {
		c.client.Delete(key.String())
	}

	c.logger.Debug("Query cache invalidated", map[string]interface{}{
		"keys": len(keys),
	})
}

// InvalidateName drops every key derived from the given logical names.
func (c *QueryCache) InvalidateName(names ...string) {
	c.generation.Add(1)

	removed := 0

	for _, key := range c.client.ScanKeys() {
		for _, name := range names {
			if key == name || strings.HasPrefix(key, NamePrefix(name)) {
				c.client.Delete(key)

				removed++

				break
			}
		}
	}

	c.logger.Debug("Query cache invalidated by name", map[string]interface{}{
		"names":   names,
		"removed": removed,
	})
}

// Clear drops every entry.
func (c *QueryCache) Clear() {
	c.generation.Add(1)

	for _, key := range c.client.ScanKeys() {
		c.client.Delete(key)
	}
}

// Size returns the number of cached entries.
func (c *QueryCache) Size() int {
	return c.client.Size()
}

// Keys returns the canonical keys currently cached, sorted.
func (c *QueryCache) Keys() []string {
	keys := c.client.ScanKeys()
	sort.Strings(keys)

	return keys
}

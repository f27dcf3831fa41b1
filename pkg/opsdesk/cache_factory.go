package opsdesk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

// CacheType represents the type of response cache backend.
type CacheType string

const (
	// CacheTypeMemory represents in-memory cache.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS represents NATS KV cache.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeTiered puts a memory cache in front of a NATS KV cache.
	CacheTypeTiered CacheType = "tiered"

	// CacheTypeNone represents no caching.
	CacheTypeNone CacheType = "none"
)

// Static errors for cache construction.
var (
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// CacheConfig configures the response cache backend.
type CacheConfig struct {
	// Type is the cache backend type
	Type CacheType `json:"type" yaml:"type"`

	// Memory cache configuration
	Memory *MemoryCacheConfig `json:"memory,omitempty" yaml:"memory,omitempty"`

	// NATS KV cache configuration
	NATS *NATSKVConfig `json:"-" yaml:"-"`

	// Common options applied to any backend. If nil, DefaultCacheOptions() is used.
	Options *CacheOptions `json:"-" yaml:"-"`
}

// MemoryCacheConfig configures memory cache.
type MemoryCacheConfig struct {
	// MaxSize is the maximum number of items in the cache
	MaxSize int `json:"max_size" yaml:"max_size"`

	// CleanupInterval is the interval for cleaning up expired entries
	CleanupInterval string `json:"cleanup_interval" yaml:"cleanup_interval"` // Duration string like "1m", "5s"
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeMemory,
		Memory: &MemoryCacheConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: "1m",
		},
		Options: DefaultCacheOptions(),
	}
}

// NewCacheFromConfig creates a cache backend from configuration.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		cache, err := NewMemoryCacheFromConfig(config.Memory)
		if err != nil {
			return nil, err
		}

		return cache, nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		cache, err := NewNATSKVCache(config.NATS)
		if err != nil {
			return nil, err
		}

		return cache, nil

	case CacheTypeTiered:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		l1, err := NewMemoryCacheFromConfig(config.Memory)
		if err != nil {
			return nil, err
		}

		l2, err := NewNATSKVCache(config.NATS)
		if err != nil {
			return nil, err
		}

		return NewCacheChain(l1, l2), nil

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// NewMemoryCacheFromConfig creates a memory cache from configuration.
func NewMemoryCacheFromConfig(config *MemoryCacheConfig) (*MemoryCache, error) {
	if config == nil {
		config = &MemoryCacheConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: "1m",
		}
	}

	if config.CleanupInterval != "" {
		_, err := time.ParseDuration(config.CleanupInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid cleanup interval %q: %w", config.CleanupInterval, err)
		}
	}

	return NewMemoryCache(config.MaxSize), nil
}

// NoOpCache disables response caching.
type NoOpCache struct{}

// NewNoOpCache creates a disabled cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always returns false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}

// CacheBuilder assembles a response cache configuration from loose settings,
// such as the backend name and NATS server stored in the CLI config file.
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder starts from DefaultCacheConfig.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{config: DefaultCacheConfig()}
}

// WithType selects the backend. An empty type keeps the memory cache.
func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	if cacheType != "" {
		b.config.Type = cacheType
	}

	return b
}

// WithMemoryConfig sizes the in-process tier.
func (b *CacheBuilder) WithMemoryConfig(maxSize int, cleanupInterval string) *CacheBuilder {
	b.config.Memory = &MemoryCacheConfig{MaxSize: maxSize, CleanupInterval: cleanupInterval}

	return b
}

// WithNATSServer points the shared tier at a NATS server. An empty url leaves
// the NATS tier unconfigured, so nats and tiered backends fail to build.
func (b *CacheBuilder) WithNATSServer(url, bucket string) *CacheBuilder {
	if url == "" {
		return b
	}

	b.config.NATS = &NATSKVConfig{URL: url, Bucket: bucket, TTL: b.config.Options.TTL}

	return b
}

// WithNATSConfig sets the NATS tier from a full configuration.
func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.NATS = config

	return b
}

// WithTTL sets how long stored responses are served before revalidation.
func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	if ttl <= 0 {
		return b
	}

	options := *b.config.Options
	options.TTL = ttl
	b.config.Options = &options

	if b.config.NATS != nil {
		b.config.NATS.TTL = ttl
	}

	return b
}

// Config returns the assembled configuration, for use as Config.ResponseCache.
func (b *CacheBuilder) Config() *CacheConfig {
	return b.config
}

// Build creates the cache directly.
func (b *CacheBuilder) Build() (Cache, error) {
	return NewCacheFromConfig(b.config)
}

// CacheChain tries its tiers in order. A hit in a slower tier is copied into
// the faster ones.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain creates a chain, fastest tier first.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{caches: caches}
}

// Get returns the first hit.
func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err == nil {
			// back-fill the faster tiers
			for j := range i {
				_ = c.caches[j].Set(ctx, key, entry)
			}

			return entry, nil
		}
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set stores an item in every tier.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(cache Cache) error { return cache.Set(ctx, key, entry) })
}

// Delete removes an item from every tier.
func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(cache Cache) error { return cache.Delete(ctx, key) })
}

// Clear empties every tier.
func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(cache Cache) error { return cache.Clear(ctx) })
}

// each applies fn to every tier and joins the failures.
func (c *CacheChain) each(fn func(Cache) error) error {
	var errs []error

	for _, cache := range c.caches {
		err := fn(cache)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Has reports whether any tier holds key.
func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

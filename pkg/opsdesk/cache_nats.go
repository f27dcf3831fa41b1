package opsdesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

// NATSKVConfig configures the NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server. Ignored when Conn is set.
	URL string

	// Bucket is the key-value bucket name
	Bucket string

	// TTL is the bucket-level expiry of stored responses
	TTL time.Duration

	// Conn reuses an existing connection. The cache does not close it.
	Conn *nats.Conn

	// Options are passed to nats.Connect.
	Options []nats.Option
}

// NATSKVCache shares stored responses between processes through a JetStream
// key-value bucket.
type NATSKVCache struct {
	conn     *nats.Conn
	ownsConn bool
	kv       jetstream.KeyValue
}

type natsRecord struct {
	Key   string     `json:"key"`
	Entry CacheEntry `json:"entry"`
}

// NewNATSKVCache connects to NATS and opens (or creates) the bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShortHTTPTimeout)
	defer cancel()

	return NewNATSKVCacheContext(ctx, config)
}

// NewNATSKVCacheContext is NewNATSKVCache bounded by ctx.
func NewNATSKVCacheContext(ctx context.Context, config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	conn := config.Conn
	ownsConn := false

	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var err error

		conn, err = nats.Connect(url, config.Options...)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		ownsConn = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		closeOwned(conn, ownsConn)

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "opsdesk response cache",
		TTL:         config.TTL,
	})
	if err != nil {
		closeOwned(conn, ownsConn)

		return nil, fmt.Errorf("opening key-value bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, ownsConn: ownsConn, kv: kv}, nil
}

// NATSKey maps an arbitrary cache key to a key valid in a NATS bucket.
func NATSKey(key string) string {
	return "r." + strconv.FormatUint(xxhash.Sum64String(key), 16)
}

// Get implements Cache.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	stored, err := c.kv.Get(ctx, NATSKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("reading %s from NATS: %w", key, err)
	}

	var record natsRecord

	err = json.Unmarshal(stored.Value(), &record)
	if err != nil {
		return nil, fmt.Errorf("decoding cached entry: %w", err)
	}

	// hash collision
	if record.Key != key {
		return nil, ErrCacheKeyNotFound
	}

	if record.Entry.Expired(time.Now()) {
		_ = c.Delete(ctx, key)

		return nil, ErrCacheEntryExpired
	}

	return &record.Entry, nil
}

// Set implements Cache.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(natsRecord{Key: key, Entry: *entry})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.kv.Put(ctx, NATSKey(key), data)
	if err != nil {
		return fmt.Errorf("writing %s to NATS: %w", key, err)
	}

	return nil
}

// Delete implements Cache.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, NATSKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s from NATS: %w", key, err)
	}

	return nil
}

// Clear implements Cache.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing NATS keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		err = c.kv.Purge(ctx, key)
		if err != nil {
			return fmt.Errorf("purging %s: %w", key, err)
		}
	}

	return nil
}

// Has implements Cache.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the connection when the cache opened it.
func (c *NATSKVCache) Close() {
	closeOwned(c.conn, c.ownsConn)
}

func closeOwned(conn *nats.Conn, owned bool) {
	if owned && conn != nil {
		conn.Close()
	}
}

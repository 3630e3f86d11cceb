package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openlove/feedrank/internal/feed"
)

// Redis implements feed.PageCache on a shared Redis instance.
// Entries expire after the configured TTL; the engine recomputes from
// the source of truth on every miss, so eviction is always safe.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis page cache. A non-positive ttl selects
// DefaultTTL seconds.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL * time.Second
	}
	return &Redis{client: client, ttl: ttl}
}

// Get returns the cached page for key, or ok=false on a miss.
// Corrupt entries are treated as misses and deleted.
func (r *Redis) Get(ctx context.Context, key feed.PageKey) (*feed.FeedPage, bool, error) {
	data, err := r.client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	page, err := decodePage(data)
	if err != nil {
		// Stale format from an older deploy; drop it and recompute.
		r.client.Del(ctx, Key(key))
		return nil, false, nil
	}
	return page, true, nil
}

// Set stores the page under key with the configured TTL. Concurrent
// writers for the same key race benignly; last writer wins.
func (r *Redis) Set(ctx context.Context, key feed.PageKey, page *feed.FeedPage) error {
	data, err := encodePage(page)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, Key(key), data, r.ttl).Err()
}

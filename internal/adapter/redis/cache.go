// Package redis caches cloud snapshots for the backend. A miss or an outage
// falls back to Postgres; the cache never decides correctness.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/config"
)

// KeyPrefixSnapshot namespaces snapshot keys.
const KeyPrefixSnapshot = "tilawah:snapshot:"

// SnapshotKey returns the cache key for a user's snapshot.
func SnapshotKey(userID string) string {
	return KeyPrefixSnapshot + userID
}

// Connect opens a client and pings it once.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// SnapshotCache stores JSON encoded snapshots with a TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a cache over client.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot. A miss is (zero, false, nil).
func (c *SnapshotCache) Get(ctx context.Context, userID string) (cloud.Snapshot, bool, error) {
	raw, err := c.client.Get(ctx, SnapshotKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cloud.Snapshot{}, false, nil
		}
		return cloud.Snapshot{}, false, fmt.Errorf("get cached snapshot: %w", err)
	}

	var snap cloud.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, SnapshotKey(userID)).Err()
		return cloud.Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Set caches snap for the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, userID string, snap cloud.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, SnapshotKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}
	return nil
}

// Invalidate removes the cached snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, SnapshotKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}

// Ping reports whether the server answers.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

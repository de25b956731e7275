package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartcity/governance/internal/domain"
)

// DefaultBacklogKey is where the department backlog snapshot is cached
const DefaultBacklogKey = "governance:backlog:snapshot"

// BacklogCache implements domain.BacklogCache on Redis
type BacklogCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewBacklogCache creates a cache that expires snapshots after ttl
func NewBacklogCache(client *redis.Client, ttl time.Duration) *BacklogCache {
	return &BacklogCache{client: client, key: DefaultBacklogKey, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: failed to parse URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return client, nil
}

// Get returns the cached snapshot; ok is false when nothing is cached
func (c *BacklogCache) Get(ctx context.Context) (domain.DepartmentLoad, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: failed to get backlog: %w", err)
	}

	var load domain.DepartmentLoad
	if err := json.Unmarshal(raw, &load); err != nil {
		return nil, false, fmt.Errorf("redis: failed to decode backlog: %w", err)
	}
	return load, true, nil
}

// Set stores a snapshot with the configured TTL
func (c *BacklogCache) Set(ctx context.Context, load domain.DepartmentLoad) error {
	raw, err := json.Marshal(load)
	if err != nil {
		return fmt.Errorf("redis: failed to encode backlog: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set backlog: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot so the next read refreshes it
func (c *BacklogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis: failed to invalidate backlog: %w", err)
	}
	return nil
}

var _ domain.BacklogCache = (*BacklogCache)(nil)

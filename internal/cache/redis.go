// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client and verifies the connection. The client
// is injected where needed; there is no package-level instance.
func Connect(addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// ItemsCache stores fetched category item lists in Redis with a TTL, so
// repeated validations don't hammer the upstream lookup APIs.
type ItemsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewItemsCache(client *redis.Client, ttl time.Duration) *ItemsCache {
	return &ItemsCache{client: client, ttl: ttl}
}

func (c *ItemsCache) key(category string) string {
	return fmt.Sprintf("category:items:%s", category)
}

// Get returns the cached item list, or nil on a miss.
func (c *ItemsCache) Get(ctx context.Context, category string) ([]string, error) {
	data, err := c.client.Get(ctx, c.key(category)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *ItemsCache) Set(ctx context.Context, category string, items []string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(category), data, c.ttl).Err()
}

package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pos-service/internal/models"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func itemKey(kind, ref string) string {
	return fmt.Sprintf("item:%s:%s", kind, ref)
}

// GetCachedItem retrieves a cached catalog item. A cache miss returns
// (nil, nil).
func (c *Client) GetCachedItem(ctx context.Context, kind, ref string) (*models.Item, error) {
	data, err := c.rdb.Get(ctx, itemKey(kind, ref)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var item models.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached item: %w", err)
	}
	return &item, nil
}

// CacheItem stores a catalog item under the given lookup key with TTL
func (c *Client) CacheItem(ctx context.Context, kind, ref string, item *models.Item, ttl time.Duration) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	return c.rdb.Set(ctx, itemKey(kind, ref), data, ttl).Err()
}

// InvalidateItem drops all cached lookup keys for an item
func (c *Client) InvalidateItem(ctx context.Context, item *models.Item) error {
	keys := []string{itemKey("id", fmt.Sprintf("%d", item.ID))}
	if item.SKU != "" {
		keys = append(keys, itemKey("sku", item.SKU))
	}
	if item.Barcode != "" {
		keys = append(keys, itemKey("barcode", item.Barcode))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexabiz/orderres/internal/logger"
)

const redisOpTimeout = 2 * time.Second

// RedisProductCache shares a tenant's active products between service
// instances. Redis failures degrade to cache misses.
type RedisProductCache struct {
	client *redis.Client
	key    string
	config CacheConfig
}

// NewRedisProductCache creates a cache stored under a per-tenant key
func NewRedisProductCache(client *redis.Client, tenantID string, config CacheConfig) *RedisProductCache {
	return &RedisProductCache{
		client: client,
		key:    fmt.Sprintf("catalog:%s:active", tenantID),
		config: config,
	}
}

// Get retrieves cached products, nil on a miss or any Redis error
func (c *RedisProductCache) Get() []*Product {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		logger.Warn("redis catalog cache get failed", "key", c.key, "error", err)
		return nil
	}

	var products []*Product
	if err := json.Unmarshal(data, &products); err != nil {
		logger.Warn("redis catalog cache holds invalid data", "key", c.key, "error", err)
		return nil
	}
	if products == nil {
		products = []*Product{}
	}
	return products
}

// Set stores products under the tenant key with the configured TTL
func (c *RedisProductCache) Set(products []*Product) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if products == nil {
		products = []*Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		logger.Warn("failed to encode catalog for redis", "key", c.key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key, data, c.config.TTL).Err(); err != nil {
		logger.Warn("redis catalog cache set failed", "key", c.key, "error", err)
	}
}

// Invalidate deletes the tenant key
func (c *RedisProductCache) Invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		logger.Warn("redis catalog cache invalidate failed", "key", c.key, "error", err)
	}
}

// IsValid returns true if the tenant key exists
func (c *RedisProductCache) IsValid() bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := c.client.Exists(ctx, c.key).Result()
	return err == nil && n > 0
}

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsblog/backend/internal/logger"
)

// Cache is a thin wrapper over redis used as a read-through cache for the
// public article endpoints. All methods degrade to a miss on error; the
// service must work identically with the cache unavailable.
type Cache struct {
	client *redis.Client
	log    *logger.Logger
}

func New(addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Cache{
		client: client,
		log:    logger.Default().WithComponent("cache"),
	}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying redis client for health checks.
func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Warn(ctx, "cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
		return "", false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Delete drops the given keys, typically after a write invalidates them.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn(ctx, "cache delete failed", map[string]interface{}{"error": err.Error()})
	}
}

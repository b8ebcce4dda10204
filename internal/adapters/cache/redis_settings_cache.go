package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSettingsCache keeps JSON-encoded configuration singletons.
type RedisSettingsCache struct {
	client *redis.Client
}

func NewRedisSettingsCache(client *redis.Client) *RedisSettingsCache {
	return &RedisSettingsCache{client: client}
}

func settingsKey(key string) string { return keyPrefix + "settings:" + key }

func (c *RedisSettingsCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, settingsKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (c *RedisSettingsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, settingsKey(key), value, ttl).Err()
}

func (c *RedisSettingsCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, settingsKey(key)).Err()
}

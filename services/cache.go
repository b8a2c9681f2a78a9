package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"form-query-platform/internal/logger"
)

// RedisCache implements KVCache on go-redis. Corrupt cached JSON reads as
// a miss, never as a request failure.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (rc *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := rc.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, &UpstreamError{Provider: "cache", Err: err}
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// Treat unparseable entries as misses and drop them
		logger.Warn("Dropping corrupt cache entry", "key", key, "error", err)
		rc.rdb.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

func (rc *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := rc.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return &UpstreamError{Provider: "cache", Err: err}
	}
	return nil
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	if err := rc.rdb.Del(ctx, key).Err(); err != nil {
		return &UpstreamError{Provider: "cache", Err: err}
	}
	return nil
}

func (rc *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rc.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, &UpstreamError{Provider: "cache", Err: err}
	}
	return n > 0, nil
}

func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.rdb.Ping(ctx).Err()
}

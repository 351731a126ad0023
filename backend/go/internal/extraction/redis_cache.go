package extraction

import (
	"context"
	"encoding/json"
	"errors"

	"Paggo/backend/go/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// RedisCache shares extraction results between service replicas. Keys never
// expire. Redis errors degrade to cache misses and are logged.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	log    *logger.Logger
}

func NewRedisCache(client redis.Cmdable, prefix string, log *logger.Logger) *RedisCache {
	if log == nil {
		log = logger.Discard()
	}
	return &RedisCache{client: client, prefix: prefix, log: log}
}

func (c *RedisCache) redisKey(key Key) string {
	return c.prefix + key.String()
}

func (c *RedisCache) Lookup(ctx context.Context, key Key) (Result, bool) {
	raw, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithErr(err).Warn("extraction cache lookup failed")
		}
		return Result{}, false
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		c.log.WithErr(err).Warn("discarding undecodable extraction cache entry")
		return Result{}, false
	}
	return r, true
}

func (c *RedisCache) Store(ctx context.Context, key Key, result Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.redisKey(key), raw, 0).Err(); err != nil {
		c.log.WithErr(err).Warn("extraction cache store failed")
	}
}

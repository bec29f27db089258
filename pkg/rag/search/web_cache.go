package search

import (
	"context"
	"encoding/json"
	"time"

	"ai-assistant-be/pkg/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisResultCache shares web results between instances.
type RedisResultCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisResultCache(rdb *redis.Client, logger *zap.Logger) *RedisResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisResultCache{rdb: rdb, logger: logger}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) ([]store.SearchResult, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("web cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var results []store.SearchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (c *RedisResultCache) Set(ctx context.Context, key string, results []store.SearchResult, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Debug("web cache write failed", zap.Error(err))
	}
}

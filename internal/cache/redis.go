package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

type redisResultCache struct {
	log    *logger.Logger
	rdb    *redis.Client
	prefix string
}

func NewRedisResultCache(log *logger.Logger, addr, prefix string) (ResultCache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if prefix == "" {
		prefix = "coursegen:result:"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisResultCache{
		log:    log.With("service", "RedisResultCache"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (c *redisResultCache) Get(ctx context.Context, key string) (*domain.GenerationResult, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out domain.GenerationResult
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("bad cached result payload", "key", key, "error", err)
		return nil, false, nil
	}
	return &out, true, nil
}

func (c *redisResultCache) Set(ctx context.Context, key string, res *domain.GenerationResult, ttl time.Duration) error {
	if res == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *redisResultCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

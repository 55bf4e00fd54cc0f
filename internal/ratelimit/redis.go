// Package ratelimit holds the Redis fixed-window login limiter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authsvc/internal/domain"
	"authsvc/internal/service"

	"github.com/redis/go-redis/v9"
)

var _ service.LoginLimiter = (*RedisLimiter)(nil)

var ErrLimiterUnavailable = errors.New("login limiter unavailable")

type Config struct {
	Prefix      string // key prefix, e.g. "auth:login"
	MaxAttempts int
	Window      time.Duration
}

type RedisLimiter struct {
	redis *redis.Client
	cfg   Config
}

func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "auth:login"
	}
	return &RedisLimiter{redis: client, cfg: cfg}
}

// Allow counts one attempt. The first attempt in a window starts the TTL.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	k := l.key(key)
	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.cfg.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}
	if count > int64(l.cfg.MaxAttempts) {
		return domain.ErrRateLimited
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return nil
}

func (l *RedisLimiter) key(k string) string { return l.cfg.Prefix + ":" + k }

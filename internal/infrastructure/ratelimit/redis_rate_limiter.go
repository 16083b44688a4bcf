package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Limiter is the fixed-window rate limiter consumed by the HTTP middleware.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisRateLimiter counts requests per key in Redis with INCR and applies the
// window TTL on the first increment.
type RedisRateLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRateLimiter creates a Redis-backed Limiter.
func NewRedisRateLimiter(client *redis.Client, logger *zap.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, logger: logger}
}

// Allow reports whether the request for key is within limit for the window.
// Redis failures fail open: rate limiting is a throttle, not an auth
// decision, and an unavailable Redis must not lock everyone out.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		r.logger.Error("Rate limit INCR failed", zap.String("key", key), zap.Error(err))
		return true, fmt.Errorf("rate limit check failed: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			r.logger.Error("Rate limit EXPIRE failed", zap.String("key", key), zap.Error(err))
		}
	}
	return count <= int64(limit), nil
}

var _ Limiter = (*RedisRateLimiter)(nil)

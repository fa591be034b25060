package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter 简单的按键限流（Redis TTL 实现）
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a Redis-backed rate limiter
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow records an attempt for the key and reports whether it was within the
// limit window. Returns true (allowed) when Redis is unavailable.
func (r *RateLimiter) Allow(ctx context.Context, scope, key string, window time.Duration) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	redisKey := fmt.Sprintf("rate_limit:%s:%s", scope, key)

	stored, err := r.client.SetNX(ctx, redisKey, "1", window).Result()
	if err != nil {
		return true, err
	}
	return stored, nil
}

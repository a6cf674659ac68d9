package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiter allows up to limit hits per key in each fixed window.
type RateLimiter struct {
	redis  *redis.Client
	scope  string
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: client, scope: scope, limit: int64(limit), window: window}
}

func (r *RateLimiter) Scope() string { return r.scope }

// Allow counts a hit for key. When redis fails the hit is allowed and the
// error returned for logging.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r == nil || r.redis == nil || r.limit <= 0 {
		return true, nil
	}

	k := rateLimitPrefix + r.scope + ":" + key
	count, err := r.redis.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, k, r.window).Err(); err != nil {
			return true, err
		}
	}
	return count <= r.limit, nil
}

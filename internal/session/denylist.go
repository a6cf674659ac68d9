// Package session keeps short-lived auth state in redis: revoked tokens and
// request counters. A nil redis client turns every operation into a no-op.
package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "auth:revoked:"

// Denylist remembers logged-out token ids until the token would have
// expired anyway.
type Denylist struct {
	redis *redis.Client
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{redis: client}
}

func (d *Denylist) Enabled() bool {
	return d != nil && d.redis != nil
}

func (d *Denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !d.Enabled() || ttl <= 0 {
		return nil
	}
	return d.redis.Set(ctx, denylistPrefix+jti, 1, ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !d.Enabled() {
		return false, nil
	}
	n, err := d.redis.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

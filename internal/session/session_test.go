package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenylist(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	d := NewDenylist(client)
	ctx := context.Background()

	mock.ExpectSet("auth:revoked:abc", 1, time.Hour).SetVal("OK")
	require.NoError(t, d.Revoke(ctx, "abc", time.Hour))

	mock.ExpectExists("auth:revoked:abc").SetVal(1)
	revoked, err := d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectExists("auth:revoked:other").SetVal(0)
	revoked, err = d.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	// an already expired token is not stored
	require.NoError(t, d.Revoke(ctx, "old", -time.Second))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDenylistRedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectExists("auth:revoked:abc").SetErr(errors.New("connection refused"))

	_, err := NewDenylist(client).IsRevoked(context.Background(), "abc")
	assert.Error(t, err)
}

func TestDenylistDisabled(t *testing.T) {
	d := NewDenylist(nil)
	assert.False(t, d.Enabled())
	assert.NoError(t, d.Revoke(context.Background(), "abc", time.Hour))

	revoked, err := d.IsRevoked(context.Background(), "abc")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestRateLimiter(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	limiter := NewRateLimiter(client, "login", 2, time.Minute)
	ctx := context.Background()

	mock.ExpectIncr("ratelimit:login:10.0.0.1").SetVal(1)
	mock.ExpectExpire("ratelimit:login:10.0.0.1", time.Minute).SetVal(true)
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectIncr("ratelimit:login:10.0.0.1").SetVal(2)
	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectIncr("ratelimit:login:10.0.0.1").SetVal(3)
	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiterFailsOpen(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectIncr("ratelimit:login:x").SetErr(errors.New("timeout"))

	ok, err := NewRateLimiter(client, "login", 1, time.Minute).Allow(context.Background(), "x")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestRateLimiterDisabled(t *testing.T) {
	ok, err := NewRateLimiter(nil, "login", 1, time.Minute).Allow(context.Background(), "x")
	assert.NoError(t, err)
	assert.True(t, ok)
}

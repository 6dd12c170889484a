package util

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestAttemptCounterWindow(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()
	c := NewAttemptCounter(rdb, "login_fail", 15*time.Minute)

	for i := int64(1); i <= 3; i++ {
		n, err := c.Increment(ctx, "Ada@Example.com")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	n, err := c.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "keys are case-insensitive")
	assert.Equal(t, 15*time.Minute, mr.TTL("login_fail:ada@example.com"))

	mr.FastForward(16 * time.Minute)
	n, err = c.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAttemptCounterKeepsFixedWindow(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()
	c := NewAttemptCounter(rdb, "login_fail", 15*time.Minute)

	_, err := c.Increment(ctx, "ada@example.com")
	require.NoError(t, err)
	mr.FastForward(10 * time.Minute)

	n, err := c.Increment(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 5*time.Minute, mr.TTL("login_fail:ada@example.com"), "later attempts do not extend the window")

	mr.SetError("READONLY You can't write against a read only replica.")
	_, err = c.Increment(ctx, "bo@example.com")
	assert.Error(t, err)
	mr.SetError("")
	assert.False(t, mr.Exists("login_fail:bo@example.com"))
}

func TestAttemptCounterReset(t *testing.T) {
	rdb, _ := newTestRedis(t)
	ctx := context.Background()
	c := NewAttemptCounter(rdb, "login_fail", time.Minute)

	_, err := c.Increment(ctx, "bo@example.com")
	require.NoError(t, err)
	require.NoError(t, c.Reset(ctx, "bo@example.com"))

	n, err := c.Get(ctx, "bo@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeduperAcquireOnce(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()
	d := NewDeduper(rdb, time.Hour, zap.NewNop())

	assert.True(t, d.AcquireOnce(ctx, "staff_alert", 42))
	assert.False(t, d.AcquireOnce(ctx, "staff_alert", 42))
	assert.True(t, d.AcquireOnce(ctx, "delivered", 42), "handlers dedup independently")

	d.Release(ctx, "staff_alert", 42)
	assert.True(t, d.AcquireOnce(ctx, "staff_alert", 42), "released events are processed again")

	mr.Close()
	assert.True(t, d.AcquireOnce(ctx, "staff_alert", 43), "fails open without redis")
}

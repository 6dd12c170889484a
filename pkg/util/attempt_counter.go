package util

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter counts events per key inside a fixed window. The window
// starts at the first increment and the key expires with it.
type AttemptCounter struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewAttemptCounter(rdb *redis.Client, prefix string, ttl time.Duration) *AttemptCounter {
	return &AttemptCounter{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (r *AttemptCounter) key(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, strings.ToLower(id))
}

// Increment bumps the counter for id and returns the new count. The key
// is created with its TTL in the same MULTI as the INCR, so a counter
// never exists without an expiry.
func (r *AttemptCounter) Increment(ctx context.Context, id string) (int64, error) {
	key := r.key(id)
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, r.ttl)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Get returns the current count, 0 when the window expired.
func (r *AttemptCounter) Get(ctx context.Context, id string) (int64, error) {
	count, err := r.rdb.Get(ctx, r.key(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// Reset clears the counter for id.
func (r *AttemptCounter) Reset(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}

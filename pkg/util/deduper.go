package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func dedupKey(handler string, eventID int64) string {
	return fmt.Sprintf("dedup:%s:%d", handler, eventID)
}

type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce returns true the first time handler sees eventID within the
// TTL and false for duplicates. When Redis is unavailable it lets the event
// through.
func (d *Deduper) AcquireOnce(ctx context.Context, handler string, eventID int64) bool {
	key := dedupKey(handler, eventID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("handler", handler),
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicated event",
			zap.String("handler", handler),
			zap.Int64("event_id", eventID),
			zap.String("dedup_key", key),
		)
	}

	return ok
}

// Release forgets eventID so a redelivery is processed again. Handlers call
// it when processing failed after AcquireOnce.
func (d *Deduper) Release(ctx context.Context, handler string, eventID int64) {
	if err := d.rdb.Del(ctx, dedupKey(handler, eventID)).Err(); err != nil {
		d.logger.Warn("Failed to release dedup key",
			zap.String("handler", handler),
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
	}
}

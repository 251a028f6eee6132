package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRetentionWorker periodically reports on transient session state
// still held in redis. Individual records carry their own TTLs, so the
// worker only surfaces counts for operators; it never deletes live keys.
func StartRetentionWorker(ctx context.Context, rdb *redis.Client) {
	SafeGo(func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				Logger.Info("Retention worker stopped")
				return
			case <-ticker.C:
				sweepTransientState(ctx, rdb)
			}
		}
	})
}

func sweepTransientState(ctx context.Context, rdb *redis.Client) {
	for _, prefix := range []string{"challenge:", "quote:", "paysession:"} {
		var count int64
		iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			count++
		}
		if err := iter.Err(); err != nil {
			Logger.Warn("Retention sweep failed", zap.String("prefix", prefix), zap.Error(err))
			continue
		}
		Logger.Info("Retention sweep", zap.String("prefix", prefix), zap.Int64("live", count))
	}
}

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache keeps rendered instructor reports in Redis so the
// roster-wide aggregation queries do not run on every dashboard load.
type ReportCache struct {
	rdb *redis.Client
}

func NewReportCache(rdb *redis.Client) *ReportCache {
	return &ReportCache{rdb: rdb}
}

func (r *ReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return nil, false
	}
	return val, true
}

func (r *ReportCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	r.rdb.Set(ctx, key, data, ttl)
}

// Invalidate drops the cached reports, called after a roster import.
func (r *ReportCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) > 0 {
		r.rdb.Del(ctx, keys...)
	}
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/redis/go-redis/v9"
)

// versionTTL outlives any stats entry by far; an expired counter restarts
// at zero, which no live entry can still carry.
const versionTTL = 24 * time.Hour

// RedisStats shares cached statistics between API replicas. Entries are
// tagged with the owner's generation counter; Invalidate bumps the counter,
// so an entry written from a task list read before a mutation never hits.
type RedisStats struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStats(rdb *redis.Client, ttl time.Duration) *RedisStats {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisStats{rdb: rdb, ttl: ttl}
}

func (r *RedisStats) Get(ctx context.Context, ownerID string, day task.Date) (task.Stats, bool, error) {
	vals, err := r.rdb.MGet(ctx, StatsKey(ownerID), StatsVersionKey(ownerID)).Result()
	if err != nil {
		return task.Stats{}, false, fmt.Errorf("redis get stats: %w", err)
	}

	raw, ok := vals[0].(string)
	if !ok {
		return task.Stats{}, false, nil
	}

	var e statsEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// unreadable payload, most likely an older shape: recompute
		return task.Stats{}, false, nil
	}
	if e.Day != day.String() || e.Version != parseVersion(vals[1]) {
		return task.Stats{}, false, nil
	}
	if e.Stats.Categories == nil {
		e.Stats.Categories = map[string]int{}
	}

	return e.Stats, true, nil
}

func (r *RedisStats) Version(ctx context.Context, ownerID string) (int64, error) {
	v, err := r.rdb.Get(ctx, StatsVersionKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get stats version: %w", err)
	}
	return v, nil
}

func (r *RedisStats) Set(ctx context.Context, ownerID string, day task.Date, version int64, s task.Stats) error {
	b, err := json.Marshal(statsEntry{Day: day.String(), Version: version, Stats: s})
	if err != nil {
		return err
	}

	if err := r.rdb.Set(ctx, StatsKey(ownerID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}
	return nil
}

func (r *RedisStats) Invalidate(ctx context.Context, ownerID string) error {
	versionKey := StatsVersionKey(ownerID)

	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, versionKey)
		p.Expire(ctx, versionKey, versionTTL)
		p.Del(ctx, StatsKey(ownerID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate stats: %w", err)
	}
	return nil
}

// parseVersion reads the counter from an MGET slot; a missing key is 0.
func parseVersion(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

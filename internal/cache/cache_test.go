package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTL[string, int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "an entry is gone exactly at its expiry")
	assert.Equal(t, 0, c.Len())
}

func TestTTL_Delete(t *testing.T) {
	c := NewTTL[string, int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTL_SweepsExpiredOnWrite(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTL[int, int](time.Minute)
	c.now = func() time.Time { return now }

	for i := 0; i < sweepEvery-1; i++ {
		c.Set(i, i)
	}
	now = now.Add(2 * time.Minute)
	c.Set(-1, -1)

	assert.Equal(t, 1, c.Len())
}

func TestStatsKey(t *testing.T) {
	assert.Equal(t, "taskhub:stats:v2:owner=u1", StatsKey(" u1 "))
	assert.Equal(t, "taskhub:stats:v2:owner=u1:gen", StatsVersionKey("u1"))
}

func sampleStats() task.Stats {
	return task.Stats{Total: 3, Completed: 1, Pending: 2, Overdue: 1, Categories: map[string]int{"Work": 2}}
}

func TestMemoryStats_DayRollover(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStats(time.Minute)
	today := task.NewDate(2026, time.May, 4)

	require.NoError(t, m.Set(ctx, "u1", today, 0, sampleStats()))

	got, ok, err := m.Get(ctx, "u1", today)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)

	_, ok, err = m.Get(ctx, "u1", today.AddDays(1))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = m.Get(ctx, "u2", today)
	assert.False(t, ok)
}

func TestMemoryStats_InvalidateAndIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStats(time.Minute)
	today := task.NewDate(2026, time.May, 4)

	s := sampleStats()
	require.NoError(t, m.Set(ctx, "u1", today, 0, s))
	s.Categories["Work"] = 99

	got, ok, _ := m.Get(ctx, "u1", today)
	require.True(t, ok)
	assert.Equal(t, 2, got.Categories["Work"])

	require.NoError(t, m.Invalidate(ctx, "u1"))
	_, ok, _ = m.Get(ctx, "u1", today)
	assert.False(t, ok)
}

func TestMemoryStats_SetFromBeforeInvalidateIsDropped(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStats(time.Minute)
	today := task.NewDate(2026, time.May, 4)

	v, err := m.Version(ctx, "u1")
	require.NoError(t, err)

	// a write lands while the reader is still computing from the old list
	require.NoError(t, m.Invalidate(ctx, "u1"))
	require.NoError(t, m.Set(ctx, "u1", today, v, sampleStats()))

	_, ok, _ := m.Get(ctx, "u1", today)
	assert.False(t, ok, "numbers read before the invalidation must not be cached")

	v2, err := m.Version(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, v+1, v2)

	require.NoError(t, m.Set(ctx, "u1", today, v2, sampleStats()))
	_, ok, _ = m.Get(ctx, "u1", today)
	assert.True(t, ok)

	other, _ := m.Version(ctx, "u2")
	assert.Equal(t, int64(0), other)
}

func TestRedisStats(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	r := NewRedisStats(rdb, time.Minute)
	today := task.NewDate(2026, time.May, 4)
	owner := "redis-test-owner"
	t.Cleanup(func() { _ = rdb.Del(ctx, StatsKey(owner), StatsVersionKey(owner)).Err() })

	v, err := r.Version(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, owner, today, v, sampleStats()))

	got, ok, err := r.Get(ctx, owner, today)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)

	_, ok, err = r.Get(ctx, owner, today.AddDays(1))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Invalidate(ctx, owner))
	_, ok, err = r.Get(ctx, owner, today)
	require.NoError(t, err)
	assert.False(t, ok)

	// computed from the list read before the invalidation above
	require.NoError(t, r.Set(ctx, owner, today, v, sampleStats()))
	_, ok, err = r.Get(ctx, owner, today)
	require.NoError(t, err)
	assert.False(t, ok, "stale generation must miss")

	v2, err := r.Version(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, v+1, v2)
	require.NoError(t, r.Set(ctx, owner, today, v2, sampleStats()))
	_, ok, err = r.Get(ctx, owner, today)
	require.NoError(t, err)
	assert.True(t, ok)
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

// statsEntry remembers which calendar day the numbers were computed for:
// overdue and due-today roll over at midnight even if no task changes.
// Version is the owner's generation when the task list was read.
type statsEntry struct {
	Day     string     `json:"day"`
	Version int64      `json:"version"`
	Stats   task.Stats `json:"stats"`
}

// MemoryStats caches per-owner statistics in process.
type MemoryStats struct {
	c *TTL[string, statsEntry]

	mu   sync.Mutex
	gens map[string]int64
}

func NewMemoryStats(ttl time.Duration) *MemoryStats {
	return &MemoryStats{
		c:    NewTTL[string, statsEntry](ttl),
		gens: make(map[string]int64),
	}
}

func (m *MemoryStats) Get(_ context.Context, ownerID string, day task.Date) (task.Stats, bool, error) {
	e, ok := m.c.Get(StatsKey(ownerID))
	if !ok || e.Day != day.String() {
		return task.Stats{}, false, nil
	}

	return cloneStats(e.Stats), true, nil
}

func (m *MemoryStats) Version(_ context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[StatsKey(ownerID)], nil
}

// Set drops numbers computed before the latest Invalidate for the owner.
func (m *MemoryStats) Set(_ context.Context, ownerID string, day task.Date, version int64, s task.Stats) error {
	key := StatsKey(ownerID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens[key] != version {
		return nil
	}
	m.c.Set(key, statsEntry{Day: day.String(), Version: version, Stats: cloneStats(s)})
	return nil
}

func (m *MemoryStats) Invalidate(_ context.Context, ownerID string) error {
	key := StatsKey(ownerID)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.gens[key]++
	m.c.Delete(key)
	return nil
}

func cloneStats(s task.Stats) task.Stats {
	cats := make(map[string]int, len(s.Categories))
	for k, v := range s.Categories {
		cats[k] = v
	}
	s.Categories = cats
	return s
}

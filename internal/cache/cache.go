package cache

import (
	"sync"
	"time"
)

// sweepEvery bounds how many writes may pass between purges of expired
// entries, so owners that never read again do not pin memory.
const sweepEvery = 256

// TTL is an in-process map whose entries all live for the same duration.
// Expired entries read as absent.
type TTL[K comparable, V any] struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  map[K]ttlItem[V]
	writes int
	now    func() time.Time
}

type ttlItem[V any] struct {
	value   V
	expires time.Time
}

func NewTTL[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &TTL[K, V]{
		ttl:   ttl,
		items: make(map[K]ttlItem[V]),
		now:   time.Now,
	}
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(it.expires) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.items[key] = ttlItem[V]{value: value, expires: now.Add(c.ttl)}

	c.writes++
	if c.writes >= sweepEvery {
		c.writes = 0
		for k, it := range c.items {
			if !now.Before(it.expires) {
				delete(c.items, k)
			}
		}
	}
}

func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet purged.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

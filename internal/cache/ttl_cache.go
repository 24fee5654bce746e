package cache

import (
	"container/list"
	"sync"
	"time"
)

// TTLCache is an in-process cache with per-entry absolute expiry and an
// LRU-bounded capacity. Expired entries are evicted lazily on read; when the
// cache is full the least-recently-used live entry is dropped. Values are
// recomputed identically from the same key upstream, so concurrent writes to
// the same key are last-write-wins by design of the callers.
type TTLCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// NewTTLCache creates a cache holding at most capacity entries, each valid
// for ttl after its last Set.
func NewTTLCache[K comparable, V any](capacity int, ttl time.Duration) *TTLCache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &TTLCache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}
}

// Get returns the cached value for key. Expired entries are treated as
// absent and removed.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[K, V])
	if time.Now().After(ent.expiresAt) {
		c.ll.Remove(el)
		delete(c.items, key)
		return zero, false
	}

	c.ll.MoveToFront(el)
	return ent.value, true
}

// Set stores value under key, resetting its expiry and evicting the
// least-recently-used entry when the cache is at capacity.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = time.Now().Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry[K, V]).key)
		}
	}

	el := c.ll.PushFront(&entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.items[key] = el
}

// Len reports the number of entries currently held, including entries that
// have expired but not yet been evicted.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

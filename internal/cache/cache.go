package cache

import "sync"

// Cache is a thread-safe LRU cache bounded by entry count and, when a
// cost function is set, by total cost.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	order    lruList[K, V]
	capacity int
	maxCost  int64
	cost     func(V) int64
	total    int64

	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache holding at most capacity entries.
// A capacity of 0 means unlimited.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	return &Cache[K, V]{
		entries:  make(map[K]*lruNode[K, V]),
		capacity: capacity,
	}
}

// NewWeighted creates a cache that additionally keeps the sum of
// cost(value) at or under maxCost. A value costlier than maxCost on its
// own is not stored.
func NewWeighted[K comparable, V any](capacity int, maxCost int64, cost func(V) int64) *Cache[K, V] {
	c := New[K, V](capacity)
	c.maxCost = maxCost
	c.cost = cost
	return c
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(node)
	return node.value, true
}

// Take removes a value from the cache and returns it. The cache keeps no
// reference to a taken value.
func (c *Cache[K, V]) Take(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.remove(node)
	return node.value, true
}

// Set stores a value, replacing any previous value for key, and evicts
// least recently used entries until the cache is within its bounds.
// It reports whether the value was stored.
func (c *Cache[K, V]) Set(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.set(key, value)
}

// Caller must hold c.mu.
func (c *Cache[K, V]) set(key K, value V) bool {
	var cost int64
	if c.cost != nil {
		cost = c.cost(value)
		if c.maxCost > 0 && cost > c.maxCost {
			if old, ok := c.entries[key]; ok {
				c.remove(old)
			}
			return false
		}
	}

	if old, ok := c.entries[key]; ok {
		c.remove(old)
	}
	node := &lruNode[K, V]{key: key, value: value, cost: cost}
	c.entries[key] = node
	c.order.PushFront(node)
	c.total += cost
	c.evict()
	return true
}

// GetOrCreate returns the cached value or creates and stores it.
// create is called under lock to prevent duplicate creation.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		c.hits++
		c.order.MoveToFront(node)
		return node.value
	}
	c.misses++
	value := create()
	c.set(key, value)
	return value
}

// Delete removes an entry and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if ok {
		c.remove(node)
	}
	return ok
}

// Clear removes all entries and resets statistics.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*lruNode[K, V])
	c.order.Clear()
	c.total = 0
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the entry limit of the cache.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Cost:      c.total,
		MaxCost:   c.maxCost,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if n := c.hits + c.misses; n > 0 {
		s.HitRate = float64(c.hits) / float64(n)
	}
	return s
}

// evict drops the oldest entries until both bounds hold.
// Caller must hold c.mu.
func (c *Cache[K, V]) evict() {
	for {
		over := c.capacity > 0 && len(c.entries) > c.capacity
		over = over || (c.maxCost > 0 && c.total > c.maxCost)
		if !over {
			return
		}
		oldest := c.order.Oldest()
		if oldest == nil {
			return
		}
		c.remove(oldest)
		c.evictions++
	}
}

// Caller must hold c.mu.
func (c *Cache[K, V]) remove(node *lruNode[K, V]) {
	c.order.Remove(node)
	delete(c.entries, node.key)
	c.total -= node.cost
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry limit, 0 if unlimited.
	Capacity int
	// Cost is the summed cost of the stored values.
	Cost int64
	// MaxCost is the cost limit, 0 if unlimited.
	MaxCost int64
	// Hits counts lookups that found their key.
	Hits uint64
	// Misses counts lookups that did not.
	Misses uint64
	// HitRate is Hits over all lookups, 0.0 to 1.0.
	HitRate float64
	// Evictions counts entries dropped to honor the bounds.
	Evictions uint64
}

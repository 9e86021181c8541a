// Package cache provides a small sharded LRU used for expensive,
// reusable render artifacts (brush-tip masks, tile staging buffers).
package cache

import (
	"sync"
	"sync/atomic"
)

const (
	// shardCount is the number of shards. Power of 2 so shard selection
	// is a bitwise AND.
	shardCount = 16

	shardMask = shardCount - 1

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 64
)

// Hasher computes a hash for a key, used for shard selection.
type Hasher[K any] func(K) uint64

// Uint64Hasher returns the key itself as the hash (identity hash).
// Suitable for keys that are already well-distributed bit packs.
func Uint64Hasher(u uint64) uint64 { return u }

// Stats holds cache access counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Sharded is a thread-safe sharded LRU cache. Each shard holds its own
// lock and LRU list, so concurrent lookups for different keys rarely
// contend.
type Sharded[K comparable, V any] struct {
	shards   [shardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*node[K, V]
	// Intrusive doubly-linked LRU list; head is most recent.
	head, tail *node[K, V]
	size       int
}

type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// NewSharded creates a sharded LRU with the given per-shard capacity.
// If capacity <= 0, DefaultCapacity is used.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *Sharded[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Sharded[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{entries: make(map[K]*node[K, V])}
	}
	return c
}

func (c *Sharded[K, V]) getShard(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get retrieves a cached value, refreshing its LRU position.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	s := c.getShard(key)
	s.mu.Lock()
	n, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.moveToFront(n)
	v := n.value
	s.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// GetOrCreate returns the cached value for key, computing and storing
// it with create on a miss. create runs with the shard lock held so a
// given key is computed at most once.
func (c *Sharded[K, V]) GetOrCreate(key K, create func() V) V {
	s := c.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[key]; ok {
		s.moveToFront(n)
		c.hits.Add(1)
		return n.value
	}

	c.misses.Add(1)
	v := create()
	for s.size >= c.capacity {
		if !s.evictOldest() {
			break
		}
		c.evictions.Add(1)
	}
	n := &node[K, V]{key: key, value: v}
	s.entries[key] = n
	s.pushFront(n)
	return v
}

// Clear removes all entries.
func (c *Sharded[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[K]*node[K, V])
		s.head, s.tail, s.size = nil, nil, 0
		s.mu.Unlock()
	}
}

// Len returns the total number of cached entries across all shards.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += s.size
		s.mu.Unlock()
	}
	return total
}

// Stats returns a snapshot of the access counters.
func (c *Sharded[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (s *shard[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.size++
}

func (s *shard[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		s.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.size--
}

func (s *shard[K, V]) moveToFront(n *node[K, V]) {
	if s.head == n {
		return
	}
	s.unlink(n)
	s.pushFront(n)
}

func (s *shard[K, V]) evictOldest() bool {
	if s.tail == nil {
		return false
	}
	oldest := s.tail
	s.unlink(oldest)
	delete(s.entries, oldest.key)
	return true
}

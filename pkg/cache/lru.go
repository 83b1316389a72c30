package cache

import (
	"container/list"
	"sync"
)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a size-bounded map that drops its least recently used entry when
// full. It is safe for concurrent use.
//
// The evict callback runs after the cache lock is released, so it may block
// (closing connections, waiting on goroutines) or call back into the cache.
type LRU[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List
	onEvict  func(key K, value V)
	mu       sync.Mutex
}

// Option configures an LRU.
type Option[K comparable, V any] func(*LRU[K, V])

// WithEvictFunc sets the callback run for every entry leaving the cache
// through eviction, Remove or Clear.
func WithEvictFunc[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) { c.onEvict = fn }
}

// New creates a cache holding at most capacity entries. It panics when
// capacity is not positive.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	c := &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key and marks it recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// GetOrCreate returns the value for key, calling create under the lock when
// the key is absent. created reports whether create ran.
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) (value V, created bool) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		c.mu.Unlock()
		return el.Value.(*entry[K, V]).value, false
	}
	value = create()
	evicted := c.insertLocked(key, value)
	c.mu.Unlock()

	c.evict(evicted)
	return value, true
}

// Put stores value under key, replacing any previous value without running
// the evict callback for it.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*entry[K, V]).value = value
		c.mu.Unlock()
		return
	}
	evicted := c.insertLocked(key, value)
	c.mu.Unlock()

	c.evict(evicted)
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	el, ok := c.items[key]
	if ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
	c.mu.Unlock()

	if ok {
		c.evict([]*entry[K, V]{el.Value.(*entry[K, V])})
	}
	return ok
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear empties the cache, running the evict callback for every entry from
// least to most recently used.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	evicted := make([]*entry[K, V], 0, c.order.Len())
	for el := c.order.Back(); el != nil; el = el.Prev() {
		evicted = append(evicted, el.Value.(*entry[K, V]))
	}
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
	c.mu.Unlock()

	c.evict(evicted)
}

// insertLocked adds a new entry and returns whatever fell off the tail.
func (c *LRU[K, V]) insertLocked(key K, value V) []*entry[K, V] {
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})

	var evicted []*entry[K, V]
	for c.order.Len() > c.capacity {
		el := c.order.Back()
		c.order.Remove(el)
		e := el.Value.(*entry[K, V])
		delete(c.items, e.key)
		evicted = append(evicted, e)
	}
	return evicted
}

func (c *LRU[K, V]) evict(entries []*entry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range entries {
		c.onEvict(e.key, e.value)
	}
}

// Package cache provides an in-memory LRU cache with optional TTL and
// load-once semantics, used to memoize plugin discovery and loading per run.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry represents a cached item with metadata
type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
	element   *list.Element
}

// call es una carga en curso; los demás llamadores esperan a done.
type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Memory implements an in-memory LRU cache with TTL support.
type Memory[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[K]*entry[K, V]
	lru      *list.List
	loading  map[K]*call[V]
}

// New creates a cache. capacity <= 0 means 128; ttl 0 means entries never expire.
func New[K comparable, V any](capacity int, ttl time.Duration) *Memory[K, V] {
	if capacity <= 0 {
		capacity = 128
	}
	return &Memory[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*entry[K, V]),
		lru:      list.New(),
		loading:  make(map[K]*call[V]),
	}
}

// Get retrieves a value and marks it as recently used.
func (c *Memory[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Memory[K, V]) getLocked(key K) (V, bool) {
	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.deleteLocked(e)
		return zero, false
	}
	c.lru.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *Memory[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

func (c *Memory[K, V]) setLocked(key K, value V) {
	var exp time.Time
	if c.ttl > 0 {
		exp = time.Now().Add(c.ttl)
	}
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = exp
		c.lru.MoveToFront(e.element)
		return
	}
	if len(c.items) >= c.capacity {
		if back := c.lru.Back(); back != nil {
			c.deleteLocked(back.Value.(*entry[K, V]))
		}
	}
	e := &entry[K, V]{key: key, value: value, expiresAt: exp}
	e.element = c.lru.PushFront(e)
	c.items[key] = e
}

// GetOrLoad devuelve el valor cacheado o ejecuta load una sola vez por clave,
// aunque haya llamadas concurrentes. Los errores no se cachean.
func (c *Memory[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	if inflight, ok := c.loading[key]; ok {
		c.mu.Unlock()
		<-inflight.done
		return inflight.value, inflight.err
	}
	cl := &call[V]{done: make(chan struct{})}
	c.loading[key] = cl
	c.mu.Unlock()

	cl.value, cl.err = load()

	c.mu.Lock()
	delete(c.loading, key)
	if cl.err == nil {
		c.setLocked(key, cl.value)
	}
	c.mu.Unlock()
	close(cl.done)

	return cl.value, cl.err
}

// Delete removes a value from the cache.
func (c *Memory[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.deleteLocked(e)
	}
}

// Clear removes all values from the cache.
func (c *Memory[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*entry[K, V])
	c.lru.Init()
}

// Size returns the current number of items in the cache.
func (c *Memory[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Memory[K, V]) deleteLocked(e *entry[K, V]) {
	c.lru.Remove(e.element)
	delete(c.items, e.key)
}

package cache

import (
	"sync"
	"time"
)

// entry is a cache slot threaded onto the recency list.
type entry[T any] struct {
	key        string
	data       T
	expiresAt  time.Time
	prev, next *entry[T]
}

// LRUCache bounds entries by count and age. Reads refresh recency; inserting
// past capacity evicts the least recently used entry.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*entry[T]
	head    *entry[T] // most recently used
	tail    *entry[T] // least recently used
}

// NewLRUCache creates a cache holding at most maxSize entries, each living
// for ttl after its last Set.
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*entry[T]),
	}
}

// Get returns the cached value for key. An expired entry is removed and
// reported as a miss.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.remove(e)
		return zero, false
	}
	c.touch(e)
	return e.data, true
}

// Set stores data under key, resetting its TTL and recency.
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.data = data
		e.expiresAt = time.Now().Add(c.ttl)
		c.touch(e)
		return
	}

	e := &entry[T]{key: key, data: data, expiresAt: time.Now().Add(c.ttl)}
	c.items[key] = e
	c.pushFront(e)

	if len(c.items) > c.maxSize && c.tail != nil {
		c.remove(c.tail)
	}
}

// Delete removes key if present.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.remove(e)
	}
}

// Purge drops every entry and returns how many were removed. Callers use it
// when a write invalidates more keys than they can enumerate.
func (c *LRUCache[T]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	c.items = make(map[string]*entry[T])
	c.head, c.tail = nil, nil
	return n
}

// CleanExpired removes every expired entry and returns the count removed.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for e := c.head; e != nil; {
		next := e.next
		if now.After(e.expiresAt) {
			c.remove(e)
			removed++
		}
		e = next
	}
	return removed
}

// Size returns the current number of entries, expired ones included.
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache[T]) remove(e *entry[T]) {
	c.unlink(e)
	delete(c.items, e.key)
}

// touch moves e to the front of the recency list.
func (c *LRUCache[T]) touch(e *entry[T]) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *LRUCache[T]) pushFront(e *entry[T]) {
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRUCache[T]) unlink(e *entry[T]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

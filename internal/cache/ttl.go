package cache

import (
	"container/list"
	"sync"
	"time"
)

// TTL is a thread-safe LRU cache whose entries expire after a fixed window.
// It backs the revalidation window of upstream API responses.
type TTL struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List
}

type ttlEntry struct {
	key     string
	value   []byte
	expires time.Time
}

// NewTTL creates a cache holding at most capacity entries for ttl each.
// A ttl <= 0 disables caching: Put is a no-op and Get always misses.
func NewTTL(capacity int, ttl time.Duration) *TTL {
	if capacity <= 0 {
		capacity = 256
	}
	return &TTL{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *TTL) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*ttlEntry)
	if !c.now().Before(e.expires) {
		delete(c.items, key)
		c.order.Remove(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *TTL) Put(key string, value []byte) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*ttlEntry)
		e.value = value
		e.expires = expires
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		if back := c.order.Back(); back != nil {
			delete(c.items, back.Value.(*ttlEntry).key)
			c.order.Remove(back)
		}
	}

	c.items[key] = c.order.PushFront(&ttlEntry{key: key, value: value, expires: expires})
}

func (c *TTL) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		delete(c.items, key)
		c.order.Remove(elem)
	}
}

func (c *TTL) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order = list.New()
}

// Len counts stored entries, including expired ones not yet evicted.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the number of entries kept when a non-positive size is given.
const DefaultSize = 256

// LRUCache is a bounded, least-recently-used map. It is safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	items *lru.Cache[K, V]
}

// NewLRUCache returns a cache holding at most size entries.
func NewLRUCache[K comparable, V any](size int) (*LRUCache[K, V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	items, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("cache: create lru: %w", err)
	}
	return &LRUCache[K, V]{items: items}, nil
}

func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	return c.items.Get(key)
}

// Put stores value under key, evicting the oldest entry when full.
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.items.Add(key, value)
}

func (c *LRUCache[K, V]) Len() int {
	return c.items.Len()
}

// Purge drops every entry.
func (c *LRUCache[K, V]) Purge() {
	c.items.Purge()
}

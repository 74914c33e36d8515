package filereader

import (
	"container/list"
	"sync"

	vrs "github.com/go-vrs/vrs"
)

// timeIndex is the (timestamp, index) pair getRecordByTime's sequential
// caller most recently asked about for a stream.
type timeIndex struct {
	timestamp float64
	index     int
}

// lookupCache is a small per-stream LRU caching the last-answered
// (time, index) pair for getRecordByTime, accelerating the common
// pattern of many sequential nearby-timestamp queries on the same
// stream. Grounded on
// pkg/storage/cache/eviction_strategies.go's LRUEvictionStrategy (age
// since last access is the eviction score), simplified from a
// score-then-sort eviction pass to a doubly-linked list + map, the
// idiomatic Go shape for a bounded LRU, since this cache's eviction
// candidate set is "the single oldest entry" rather than "free N bytes."
type lookupCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	entries  map[vrs.StreamId]*list.Element
}

type cacheEntry struct {
	streamID vrs.StreamId
	value    timeIndex
}

// newLookupCache returns a lookupCache holding at most capacity streams'
// worth of entries.
func newLookupCache(capacity int) *lookupCache {
	if capacity <= 0 {
		capacity = 32
	}
	return &lookupCache{capacity: capacity, order: list.New(), entries: map[vrs.StreamId]*list.Element{}}
}

// Get returns the cached (timestamp, index) for streamID, if any.
func (c *lookupCache) Get(streamID vrs.StreamId) (timeIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[streamID]
	if !ok {
		return timeIndex{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

// Put records the (timestamp, index) most recently answered for streamID.
func (c *lookupCache) Put(streamID vrs.StreamId, value timeIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[streamID]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{streamID: streamID, value: value})
	c.entries[streamID] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).streamID)
		}
	}
}

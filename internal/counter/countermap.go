package counter

import (
	"sort"
	"sync"
)

// Map holds one Counter per key, created on first touch.
type Map struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{counters: make(map[string]*Counter)}
}

// Get returns the counter for key, creating it if absent.
func (m *Map) Get(key string) *Counter {
	m.mu.RLock()
	c, ok := m.counters[key]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[key]; ok {
		return c
	}
	c = NewCounter()
	m.counters[key] = c
	return c
}

// Add is shorthand for Get(key).Add(v).
func (m *Map) Add(key string, v int64) {
	m.Get(key).Add(v)
}

// Keys returns a snapshot of the current key set.
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.counters))
	for k := range m.counters {
		keys = append(keys, k)
	}
	return keys
}

// SortedBySum returns up to limit keys with their counters, ordered by
// Sum() descending.
func (m *Map) SortedBySum(limit int) []KeyCounter {
	m.mu.RLock()
	snapshot := make([]KeyCounter, 0, len(m.counters))
	for k, c := range m.counters {
		snapshot = append(snapshot, KeyCounter{Key: k, Sum: c.Sum(), Count: c.Count()})
	}
	m.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Sum > snapshot[j].Sum })
	if limit > 0 && len(snapshot) > limit {
		snapshot = snapshot[:limit]
	}
	return snapshot
}

// KeyCounter is a point-in-time read of one keyed counter.
type KeyCounter struct {
	Key   string
	Sum   int64
	Count int64
}

// Clear drops all counters.
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]*Counter)
}

package registry

import (
	"sort"
	"sync"
)

// Table is a thread-safe mapping from a comparable key (a tree node) to an
// ordered list of values. It uses sync.RWMutex for read-heavy workloads.
//
// Keys are interned into stable uint64 ids on first insertion. The id is
// internal bookkeeping: it gives deterministic iteration order (insertion
// order of keys) and keeps the per-key state in one dense map instead of
// scattering it across several keyed maps.
type Table[K comparable, V any] struct {
	mu      sync.RWMutex
	ids     map[K]uint64
	entries map[uint64]*entry[K, V]
	nextID  uint64
}

// entry holds one key's values in insertion order.
type entry[K comparable, V any] struct {
	key    K
	values []V
}

// NewTable creates an empty table.
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{
		ids:     make(map[K]uint64),
		entries: make(map[uint64]*entry[K, V]),
	}
}

// Add appends a value to the key's list, creating the list if absent.
// Returns true if this is the key's first value.
func (t *Table[K, V]) Add(key K, value V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.ids[key]
	if !ok {
		t.nextID++
		id = t.nextID
		t.ids[key] = id
		t.entries[id] = &entry[K, V]{key: key}
	}

	e := t.entries[id]
	e.values = append(e.values, value)
	return !ok
}

// RemoveFunc removes the first value under key for which match returns true.
// Returns the removed value, whether the key's list became empty (in which
// case the key's entry is deleted), and whether anything was removed.
func (t *Table[K, V]) RemoveFunc(key K, match func(V) bool) (removed V, last bool, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, exists := t.ids[key]
	if !exists {
		return removed, false, false
	}

	e := t.entries[id]
	for i, v := range e.values {
		if !match(v) {
			continue
		}
		removed = v
		e.values = append(e.values[:i], e.values[i+1:]...)
		if len(e.values) == 0 {
			delete(t.entries, id)
			delete(t.ids, key)
			return removed, true, true
		}
		return removed, false, true
	}
	return removed, false, false
}

// ListFor returns a copy of the key's values in insertion order.
// Returns nil if the key has no entry.
func (t *Table[K, V]) ListFor(key K) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.ids[key]
	if !ok {
		return nil
	}
	e := t.entries[id]
	out := make([]V, len(e.values))
	copy(out, e.values)
	return out
}

// CountFor returns the number of values stored under key.
func (t *Table[K, V]) CountFor(key K) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.ids[key]
	if !ok {
		return 0
	}
	return len(t.entries[id].values)
}

// Has returns true if the key has at least one value.
func (t *Table[K, V]) Has(key K) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.ids[key]
	return ok
}

// Purge deletes the key's entry entirely and returns the values it held,
// in insertion order. Purging an absent key returns nil.
func (t *Table[K, V]) Purge(key K) []V {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.ids[key]
	if !ok {
		return nil
	}
	values := t.entries[id].values
	delete(t.entries, id)
	delete(t.ids, key)
	return values
}

// Keys returns all keys with at least one value, in key insertion order.
func (t *Table[K, V]) Keys() []K {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]uint64, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	keys := make([]K, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, t.entries[id].key)
	}
	return keys
}

// Len returns the number of keys with at least one value.
func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Size returns the total number of values across all keys.
func (t *Table[K, V]) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		n += len(e.values)
	}
	return n
}

// Range iterates over all keys and their value lists. If fn returns false,
// iteration stops.
//
// Range iterates over a snapshot taken under the read lock, so it is safe
// to call Add, RemoveFunc, or Purge from fn without affecting the current
// iteration. The value slices passed to fn are copies.
func (t *Table[K, V]) Range(fn func(K, []V) bool) {
	t.mu.RLock()
	ids := make([]uint64, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	type snap struct {
		key    K
		values []V
	}
	snapshot := make([]snap, 0, len(ids))
	for _, id := range ids {
		e := t.entries[id]
		values := make([]V, len(e.values))
		copy(values, e.values)
		snapshot = append(snapshot, snap{key: e.key, values: values})
	}
	t.mu.RUnlock()

	for _, s := range snapshot {
		if !fn(s.key, s.values) {
			return
		}
	}
}

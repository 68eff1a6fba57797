package alchemist

import (
	"alchemist/ds"
)

// Map is a concurrent uintptr -> uintptr store.
//
// 0 is the absent sentinel: it is never stored, a write of key 0 or value 0 is
// skipped, and reads report a missing key as 0. Every method accepts a nil
// *Map and then does nothing, returning 0.
//
// Each key lives in one shard guarded by its own RWMutex, so operations on
// the same key are linearizable while keys in different shards never wait on
// each other. Batch methods apply their elements one at a time in index order;
// a concurrent reader may observe a partially applied batch.
type Map struct {
	table *ds.ConcurrentMap[uintptr, uintptr]
}

// NewMap returns an empty map built from DefaultConfig.
func NewMap() *Map {
	return NewMapWithConfig(DefaultConfig())
}

// NewMapWithConfig returns an empty map. Invalid fields fall back to defaults.
func NewMapWithConfig(cfg Config) *Map {
	return &Map{
		table: ds.NewWithCustomShardingFunction[uintptr, uintptr](cfg.ShardCount, cfg.ShardCapacity, cfg.shardingFunc()),
	}
}

// Destroy releases all entries.
func (m *Map) Destroy() {
	if m == nil {
		return
	}
	m.table.Clear()
}

func (m *Map) Set(key, value uintptr) {
	if m == nil || key == 0 || value == 0 {
		return
	}
	m.table.Set(key, value)
}

// Swap stores value under key and returns the value it replaced, or 0.
// Like Set, it is skipped when key or value is 0.
func (m *Map) Swap(key, value uintptr) uintptr {
	if m == nil || key == 0 || value == 0 {
		return 0
	}
	old, _ := m.table.Swap(key, value)
	return old
}

func (m *Map) Get(key uintptr) uintptr {
	if m == nil || key == 0 {
		return 0
	}
	val, _ := m.table.Get(key)
	return val
}

// Has reports whether key is present. It takes only the shard's read lock.
func (m *Map) Has(key uintptr) bool {
	if m == nil || key == 0 {
		return false
	}
	return m.table.Has(key)
}

// Remove deletes key and returns its value, or 0 if it was absent.
func (m *Map) Remove(key uintptr) uintptr {
	if m == nil || key == 0 {
		return 0
	}
	val, _ := m.table.Pop(key)
	return val
}

// Len counts the entries shard by shard.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return m.table.Size()
}

// BatchSet applies Set to each pair. Only the first min(len(keys), len(values))
// pairs are used.
func (m *Map) BatchSet(keys, values []uintptr) {
	if m == nil {
		return
	}
	n := min(len(keys), len(values))
	for i := 0; i < n; i++ {
		m.Set(keys[i], values[i])
	}
}

// BatchGet writes Get(keys[i]) into out[i].
func (m *Map) BatchGet(keys, out []uintptr) {
	if m == nil {
		return
	}
	n := min(len(keys), len(out))
	for i := 0; i < n; i++ {
		out[i] = m.Get(keys[i])
	}
}

// BatchRemove writes Remove(keys[i]) into out[i].
func (m *Map) BatchRemove(keys, out []uintptr) {
	if m == nil {
		return
	}
	n := min(len(keys), len(out))
	for i := 0; i < n; i++ {
		out[i] = m.Remove(keys[i])
	}
}

// ShardCount returns the number of shards; 0 for a nil map.
func (m *Map) ShardCount() int {
	if m == nil {
		return 0
	}
	return m.table.ShardCount()
}

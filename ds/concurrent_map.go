package ds

import (
	"math/bits"
	"sync"

	"golang.org/x/sys/cpu"
)

const (
	DefaultShardCount = 32
	MaxShardCount     = 1 << 16
)

type MapShard[K comparable, V any] struct {
	simpleMap    map[K]V
	sync.RWMutex // r&w lock for every shard
	_            cpu.CacheLinePad
}

// Get gets the value under a given key.
func (ms *MapShard[K, V]) Get(key K) (V, bool) {
	val, ok := ms.simpleMap[key]
	return val, ok
}

// Set sets the key and value under a specific MapShard.
func (ms *MapShard[K, V]) Set(key K, value V) {
	ms.simpleMap[key] = value
}

// Swap sets the key and value and returns the previous value if there was one.
func (ms *MapShard[K, V]) Swap(key K, value V) (V, bool) {
	old, ok := ms.simpleMap[key]
	ms.simpleMap[key] = value
	return old, ok
}

// Has returns if the map contains a specific key.
func (ms *MapShard[K, V]) Has(key K) bool {
	_, ok := ms.simpleMap[key]
	return ok
}

// Remove deletes an element from the map.
func (ms *MapShard[K, V]) Remove(key K) {
	delete(ms.simpleMap, key)
}

// Pop deletes an element from the map and returns it.
func (ms *MapShard[K, V]) Pop(key K) (V, bool) {
	val, exist := ms.simpleMap[key]
	if exist {
		delete(ms.simpleMap, key)
	}
	return val, exist
}

// Len returns the number of keys in the shard.
func (ms *MapShard[K, V]) Len() int {
	return len(ms.simpleMap)
}

// appendTo copies the shard entries onto dst.
func (ms *MapShard[K, V]) appendTo(dst []Entry[K, V]) []Entry[K, V] {
	for k, v := range ms.simpleMap {
		dst = append(dst, Entry[K, V]{Key: k, Value: v})
	}
	return dst
}

// ConcurrentMap is a hash table split into independently locked shards.
// Operations on keys routed to different shards never contend; every
// single-key method holds one shard lock for one map operation.
type ConcurrentMap[K comparable, V any] struct {
	shards   []*MapShard[K, V]
	sharding func(key K) uint32
	mask     uint32
}

// NewWithCustomShardingFunction creates a new concurrent map.
// mapShardCount is rounded up to a power of two and is at least DefaultShardCount.
// shardCapacity is a size hint for every shard, 0 lets the shards grow from empty.
func NewWithCustomShardingFunction[K comparable, V any](mapShardCount, shardCapacity int, sharding func(key K) uint32) *ConcurrentMap[K, V] {
	mapShardCount = NormalizeShardCount(mapShardCount)
	if shardCapacity < 0 {
		shardCapacity = 0
	}

	cm := &ConcurrentMap[K, V]{
		sharding: sharding,
		shards:   make([]*MapShard[K, V], mapShardCount),
		mask:     uint32(mapShardCount - 1),
	}

	for i := 0; i < mapShardCount; i++ {
		cm.shards[i] = &MapShard[K, V]{simpleMap: make(map[K]V, shardCapacity)}
	}

	return cm
}

// NormalizeShardCount clamps n into [DefaultShardCount, MaxShardCount] and
// rounds it up to the next power of two.
func NormalizeShardCount(n int) int {
	if n < DefaultShardCount {
		return DefaultShardCount
	}
	if n > MaxShardCount {
		return MaxShardCount
	}
	return 1 << bits.Len(uint(n-1))
}

// ShardCount returns the number of shards.
func (cm *ConcurrentMap[K, V]) ShardCount() int {
	return len(cm.shards)
}

// GetShard returns the MapShard under the given key.
func (cm *ConcurrentMap[K, V]) GetShard(key K) *MapShard[K, V] {
	return cm.shards[cm.sharding(key)&cm.mask]
}

// GetShardByReading returns the MapShard under the given key after RLocking.
// Remember to unlock the shard!
func (cm *ConcurrentMap[K, V]) GetShardByReading(key K) *MapShard[K, V] {
	shard := cm.GetShard(key)
	shard.RLock()
	// remember to RUnlock
	return shard
}

// GetShardByWriting returns the MapShard under the given key after Locking.
// Remember to unlock the shard!
func (cm *ConcurrentMap[K, V]) GetShardByWriting(key K) *MapShard[K, V] {
	shard := cm.GetShard(key)
	shard.Lock()
	// remember to Unlock
	return shard
}

// Get gets the value under a given key.
func (cm *ConcurrentMap[K, V]) Get(key K) (V, bool) {
	shard := cm.GetShardByReading(key)
	val, ok := shard.Get(key)
	shard.RUnlock()
	return val, ok
}

// Set sets the key and value under a specific MapShard.
func (cm *ConcurrentMap[K, V]) Set(key K, value V) {
	shard := cm.GetShardByWriting(key)
	shard.Set(key, value)
	shard.Unlock()
}

// Swap sets the key and value and returns the value it replaced.
func (cm *ConcurrentMap[K, V]) Swap(key K, value V) (V, bool) {
	shard := cm.GetShardByWriting(key)
	old, ok := shard.Swap(key, value)
	shard.Unlock()
	return old, ok
}

// Has returns if the map contains a specific key.
func (cm *ConcurrentMap[K, V]) Has(key K) bool {
	shard := cm.GetShardByReading(key)
	ok := shard.Has(key)
	shard.RUnlock()
	return ok
}

// Remove deletes an element from the map.
func (cm *ConcurrentMap[K, V]) Remove(key K) {
	shard := cm.GetShardByWriting(key)
	shard.Remove(key)
	shard.Unlock()
}

// Pop deletes an element from the map and returns it.
func (cm *ConcurrentMap[K, V]) Pop(key K) (V, bool) {
	shard := cm.GetShardByWriting(key)
	val, ok := shard.Pop(key)
	shard.Unlock()
	return val, ok
}

// Size returns the number of keys. Shards are counted one after another,
// so under concurrent writes the result is not a global instant.
func (cm *ConcurrentMap[K, V]) Size() int {
	cnt := 0
	for _, shard := range cm.shards {
		shard.RLock()
		cnt += shard.Len()
		shard.RUnlock()
	}
	return cnt
}

// Clear drops every entry, shard by shard.
func (cm *ConcurrentMap[K, V]) Clear() {
	for _, shard := range cm.shards {
		shard.Lock()
		shard.simpleMap = make(map[K]V)
		shard.Unlock()
	}
}

// Snapshot copies every entry into a new slice. Each shard is read-locked
// only while its own entries are copied, so the result is consistent per
// shard but not across shards.
func (cm *ConcurrentMap[K, V]) Snapshot() []Entry[K, V] {
	entries := make([]Entry[K, V], 0, cm.Size())
	for _, shard := range cm.shards {
		shard.RLock()
		entries = shard.appendTo(entries)
		shard.RUnlock()
	}
	return entries
}

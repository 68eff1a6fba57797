package alchemist

import (
	"alchemist/ds"
	"sync"
)

// Iterator walks a copy of a Map taken when the iterator was created.
//
// The copy is taken shard by shard, each shard under its own read lock for
// just the time it takes to copy it. Every pair returned was present in the
// map at some moment during the walk, but with concurrent writers the whole
// set may not match any single instant. No global lock is taken, which keeps
// writers running while the snapshot is built and while the caller iterates.
//
// The iterator keeps nothing from the source map, so destroying either one
// never affects the other. Order is unspecified. Methods may be called from
// several goroutines and accept a nil *Iterator.
type Iterator struct {
	mu     sync.Mutex
	cursor *ds.Iterator[uintptr, uintptr]
}

// NewIterator snapshots m. It returns nil when m is nil.
func NewIterator(m *Map) *Iterator {
	if m == nil {
		return nil
	}
	return &Iterator{cursor: ds.NewIterator(m.table.Snapshot())}
}

// Iterator is shorthand for NewIterator(m).
func (m *Map) Iterator() *Iterator {
	return NewIterator(m)
}

// Next returns the next pair. ok is false once the iterator is exhausted.
func (it *Iterator) Next() (key, value uintptr, ok bool) {
	if it == nil {
		return 0, 0, false
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	e, ok := it.cursor.Next()
	return e.Key, e.Value, ok
}

// NextBatch returns up to limit remaining pairs, none once exhausted.
func (it *Iterator) NextBatch(limit int) []ds.Entry[uintptr, uintptr] {
	if it == nil || limit <= 0 {
		return nil
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cursor.NextBatch(limit)
}

// NextBatchInto fills keys and values with up to min(len(keys), len(values))
// pairs and returns how many it wrote.
func (it *Iterator) NextBatchInto(keys, values []uintptr) int {
	if it == nil || len(keys) == 0 || len(values) == 0 {
		return 0
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cursor.NextBatchInto(keys, values)
}

// Len is the number of pairs in the snapshot.
func (it *Iterator) Len() int {
	if it == nil {
		return 0
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cursor.Len()
}

func (it *Iterator) Remaining() int {
	if it == nil {
		return 0
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cursor.Remaining()
}

func (it *Iterator) Exhausted() bool {
	if it == nil {
		return true
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cursor.Exhausted()
}

// Destroy releases the snapshot. Further reads behave as exhausted.
func (it *Iterator) Destroy() {
	if it == nil {
		return
	}
	it.mu.Lock()
	it.cursor.Release()
	it.mu.Unlock()
}

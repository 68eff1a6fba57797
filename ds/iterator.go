package ds

// Entry is a key-value pair copied out of a ConcurrentMap.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Iterator is a forward-only cursor over a fixed slice of entries.
// It has two states: active while pos < len(items), exhausted afterwards.
// An Iterator is not safe for concurrent use.
type Iterator[K comparable, V any] struct {
	items []Entry[K, V]
	pos   int
}

// NewIterator takes ownership of items; the caller must not modify them afterwards.
func NewIterator[K comparable, V any](items []Entry[K, V]) *Iterator[K, V] {
	return &Iterator[K, V]{items: items}
}

// Next returns the entry under the cursor and advances it.
// ok is false once the iterator is exhausted, on every further call.
func (it *Iterator[K, V]) Next() (entry Entry[K, V], ok bool) {
	if it.pos >= len(it.items) {
		return entry, false
	}
	entry = it.items[it.pos]
	it.pos++
	return entry, true
}

// NextBatch returns up to limit remaining entries in a new slice.
func (it *Iterator[K, V]) NextBatch(limit int) []Entry[K, V] {
	n := min(limit, it.Remaining())
	if n <= 0 {
		return nil
	}
	out := make([]Entry[K, V], n)
	copy(out, it.items[it.pos:it.pos+n])
	it.pos += n
	return out
}

// NextBatchInto writes remaining entries into keys and values, index-aligned,
// and returns how many were written. At most min(len(keys), len(values))
// entries are consumed.
func (it *Iterator[K, V]) NextBatchInto(keys []K, values []V) int {
	n := min(len(keys), len(values), it.Remaining())
	if n <= 0 {
		return 0
	}
	for i, e := range it.items[it.pos : it.pos+n] {
		keys[i] = e.Key
		values[i] = e.Value
	}
	it.pos += n
	return n
}

// Len returns the number of entries copied at construction.
func (it *Iterator[K, V]) Len() int {
	return len(it.items)
}

// Remaining returns how many entries the cursor has not passed yet.
func (it *Iterator[K, V]) Remaining() int {
	return len(it.items) - it.pos
}

// Exhausted reports whether the cursor reached the end.
func (it *Iterator[K, V]) Exhausted() bool {
	return it.pos >= len(it.items)
}

// Release drops the copied entries and leaves the iterator exhausted.
func (it *Iterator[K, V]) Release() {
	it.items = nil
	it.pos = 0
}

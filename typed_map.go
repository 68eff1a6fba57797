package alchemist

// TypedMap maps *Value[K] to *Value[V] on top of a Map. Keys and values are
// registered in their own PointerArena and the Map stores their UIDs.
//
// A key Value keeps its UID for as long as it stays in the map, so the same
// *Value[K] must be used to look an entry up again. A Value belongs to one
// TypedMap at a time.
type TypedMap[K any, V any] struct {
	m    *Map
	Keys *PointerArena[K]
	Vals *PointerArena[V]
}

func NewTypedMap[K any, V any]() *TypedMap[K, V] {
	return NewTypedMapWithConfig[K, V](DefaultConfig())
}

func NewTypedMapWithConfig[K any, V any](cfg Config) *TypedMap[K, V] {
	return &TypedMap[K, V]{
		m:    NewMapWithConfig(cfg),
		Keys: NewPointerArena[K](),
		Vals: NewPointerArena[V](),
	}
}

// Destroy drops every entry and every registered object.
func (tm *TypedMap[K, V]) Destroy() {
	if tm == nil {
		return
	}
	tm.m.Destroy()
	tm.Keys.destroy()
	tm.Vals.destroy()
}

// Set stores v under k. The value it replaces is released from the value arena.
// Nil keys or values are ignored.
func (tm *TypedMap[K, V]) Set(k *Value[K], v *Value[V]) {
	if tm == nil || k == nil || v == nil {
		return
	}
	keyUID := tm.Keys.ensure(k)
	valUID := tm.Vals.alloc(v)
	if old := tm.m.Swap(keyUID, valUID); old != 0 && old != valUID {
		tm.Vals.free(old)
	}
}

// Get returns the value stored under k, or nil.
func (tm *TypedMap[K, V]) Get(k *Value[K]) *Value[V] {
	if tm == nil {
		return nil
	}
	return tm.Vals.Get(tm.m.Get(k.UID()))
}

// Has reports whether k has an entry.
func (tm *TypedMap[K, V]) Has(k *Value[K]) bool {
	if tm == nil {
		return false
	}
	return tm.m.Has(k.UID())
}

// Remove deletes k and returns the value it held, or nil.
func (tm *TypedMap[K, V]) Remove(k *Value[K]) *Value[V] {
	if tm == nil {
		return nil
	}
	keyUID := k.UID()
	valUID := tm.m.Remove(keyUID)
	if valUID == 0 {
		return nil
	}
	v := tm.Vals.Get(valUID)
	tm.Keys.free(keyUID)
	tm.Vals.free(valUID)
	return v
}

// BatchSet stores vals[i] under keys[i] for the common prefix of both slices.
func (tm *TypedMap[K, V]) BatchSet(keys []*Value[K], vals []*Value[V]) {
	if tm == nil {
		return
	}
	n := min(len(keys), len(vals))
	if n == 0 {
		return
	}

	keyUIDs := make([]uintptr, n)
	valUIDs := make([]uintptr, n)
	for i := 0; i < n; i++ {
		if keys[i] == nil || vals[i] == nil {
			continue
		}
		keyUIDs[i] = tm.Keys.ensure(keys[i])
		valUIDs[i] = tm.Vals.alloc(vals[i])
	}
	for i := 0; i < n; i++ {
		if old := tm.m.Swap(keyUIDs[i], valUIDs[i]); old != 0 && old != valUIDs[i] {
			tm.Vals.free(old)
		}
	}
}

// BatchGet returns values index-aligned with keys, nil where a key is missing.
func (tm *TypedMap[K, V]) BatchGet(keys []*Value[K]) []*Value[V] {
	if tm == nil || len(keys) == 0 {
		return nil
	}
	uids := tm.uids(keys)
	vals := make([]uintptr, len(uids))
	tm.m.BatchGet(uids, vals)

	out := make([]*Value[V], len(vals))
	for i, uid := range vals {
		out[i] = tm.Vals.Get(uid)
	}
	return out
}

// BatchRemove removes keys and returns their values index-aligned, nil where a key was missing.
func (tm *TypedMap[K, V]) BatchRemove(keys []*Value[K]) []*Value[V] {
	if tm == nil || len(keys) == 0 {
		return nil
	}
	uids := tm.uids(keys)
	vals := make([]uintptr, len(uids))
	tm.m.BatchRemove(uids, vals)

	out := make([]*Value[V], len(vals))
	for i, uid := range vals {
		if uid == 0 {
			continue
		}
		out[i] = tm.Vals.Get(uid)
		tm.Keys.free(uids[i])
		tm.Vals.free(uid)
	}
	return out
}

func (tm *TypedMap[K, V]) uids(keys []*Value[K]) []uintptr {
	uids := make([]uintptr, len(keys))
	for i, k := range keys {
		uids[i] = k.UID()
	}
	return uids
}

// Len returns the number of entries.
func (tm *TypedMap[K, V]) Len() int {
	if tm == nil {
		return 0
	}
	return tm.m.Len()
}

// Range calls fn for every entry of a snapshot until fn returns false.
// Entries removed after the snapshot was taken are skipped.
func (tm *TypedMap[K, V]) Range(fn func(k *Value[K], v *Value[V]) bool) {
	if tm == nil {
		return
	}
	it := tm.m.Iterator()
	defer it.Destroy()
	for {
		keyUID, valUID, ok := it.Next()
		if !ok {
			return
		}
		k, v := tm.Keys.Get(keyUID), tm.Vals.Get(valUID)
		if k == nil || v == nil {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

package alchemist

import (
	"alchemist/ds"
	"alchemist/util"
	"sync/atomic"
)

const arenaShards = 256

// Value wraps a Go object so it can be referenced by a nonzero uintptr UID.
// The UID is 0 until the value is allocated in a PointerArena.
type Value[T any] struct {
	uid     atomic.Uintptr
	pointer *T
}

func NewValue[T any](pointer *T) *Value[T] {
	return &Value[T]{pointer: pointer}
}

// UID returns the arena id, 0 if the value was never allocated.
func (v *Value[T]) UID() uintptr {
	if v == nil {
		return 0
	}
	return v.uid.Load()
}

func (v *Value[T]) Value() *T {
	if v == nil {
		return nil
	}
	return v.pointer
}

// PointerArena hands out UIDs for Values and resolves them back.
// UIDs come from a counter and are never reused within one arena.
type PointerArena[T any] struct {
	objects *ds.ConcurrentMap[uintptr, *Value[T]]
	counter atomic.Uintptr
}

func NewPointerArena[T any]() *PointerArena[T] {
	return &PointerArena[T]{
		objects: ds.NewWithCustomShardingFunction[uintptr, *Value[T]](arenaShards, 0, util.MemHashUintptr),
	}
}

// alloc registers obj under a fresh UID and stamps it on obj.
func (a *PointerArena[T]) alloc(obj *Value[T]) uintptr {
	uid := a.counter.Add(1)
	obj.uid.Store(uid)
	a.objects.Set(uid, obj)
	return uid
}

// ensure returns obj's UID, allocating one if obj has none in this arena.
// Callers racing on the same obj agree on a single UID: the candidate is
// registered first and only kept if it wins the swap on obj.uid.
func (a *PointerArena[T]) ensure(obj *Value[T]) uintptr {
	for {
		uid := obj.uid.Load()
		if uid != 0 {
			if cur, ok := a.objects.Get(uid); ok && cur == obj {
				return uid
			}
		}
		next := a.counter.Add(1)
		a.objects.Set(next, obj)
		if obj.uid.CompareAndSwap(uid, next) {
			return next
		}
		a.objects.Remove(next)
	}
}

// Get returns the value registered under uid, or nil.
func (a *PointerArena[T]) Get(uid uintptr) *Value[T] {
	if uid == 0 {
		return nil
	}
	v, _ := a.objects.Get(uid)
	return v
}

func (a *PointerArena[T]) free(uid uintptr) {
	if uid == 0 {
		return
	}
	a.objects.Remove(uid)
}

// Len returns the number of live UIDs.
func (a *PointerArena[T]) Len() int {
	return a.objects.Size()
}

func (a *PointerArena[T]) destroy() {
	a.objects.Clear()
}

package capi

import (
	"alchemist"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRegistry(t *testing.T) (*Registry, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	r, err := NewRegistry(alchemist.DefaultConfig(), zap.New(core))
	require.NoError(t, err)
	return r, logs
}

func TestRegistry_MapLifecycle(t *testing.T) {
	r, logs := newTestRegistry(t)

	h := r.MapNew()
	assert.NotEqual(t, NilHandle, h)
	assert.Equal(t, 1, r.Maps())

	r.MapSet(h, 1, 10)
	assert.Equal(t, uintptr(10), r.MapGet(h, 1))
	assert.Equal(t, 1, r.MapLen(h))
	assert.Equal(t, uintptr(10), r.MapRemove(h, 1))
	assert.Equal(t, uintptr(0), r.MapGet(h, 1))

	r.MapDestroy(h)
	assert.Equal(t, 0, r.Maps())
	assert.Equal(t, 1, logs.FilterMessage("map created").Len())
	assert.Equal(t, 1, logs.FilterMessage("map destroyed").Len())
}

func TestRegistry_HandlesAreUnique(t *testing.T) {
	r, _ := newTestRegistry(t)
	seen := make(map[Handle]bool)
	for i := 0; i < 1000; i++ {
		h := r.MapNew()
		assert.False(t, seen[h])
		seen[h] = true
	}
	assert.Equal(t, 1000, r.Maps())
}

func TestRegistry_AbsentHandle(t *testing.T) {
	r, logs := newTestRegistry(t)
	live := r.MapNew()
	r.MapSet(live, 1, 10)

	for _, h := range []Handle{NilHandle, live + 1} {
		assert.NotPanics(t, func() {
			r.MapSet(h, 1, 1)
			r.MapBatchSet(h, []uintptr{1}, []uintptr{1})
			out := []uintptr{5}
			r.MapBatchGet(h, []uintptr{1}, out)
			r.MapBatchRemove(h, []uintptr{1}, out)
			r.MapDestroy(h)
			r.IteratorDestroy(h)
		})
		assert.Equal(t, uintptr(0), r.MapGet(h, 1))
		assert.Equal(t, uintptr(0), r.MapRemove(h, 1))
		assert.Equal(t, 0, r.MapLen(h))
		assert.Equal(t, NilHandle, r.IteratorNew(h))
		_, _, ok := r.IteratorNext(h)
		assert.False(t, ok)
		assert.Equal(t, 0, r.IteratorNextBatch(h, make([]uintptr, 1), make([]uintptr, 1)))
	}

	// the live map is untouched
	assert.Equal(t, uintptr(10), r.MapGet(live, 1))
	assert.Equal(t, 1, r.Maps())
	assert.Equal(t, 2, logs.FilterMessage("destroy of unknown map").Len())
}

func TestRegistry_StaleHandle(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := r.MapNew()
	r.MapSet(h, 1, 10)
	r.MapDestroy(h)

	r.MapSet(h, 2, 20)
	assert.Equal(t, uintptr(0), r.MapGet(h, 1))
	assert.Equal(t, uintptr(0), r.MapGet(h, 2))
	assert.NotPanics(t, func() { r.MapDestroy(h) })
}

func TestRegistry_Sentinel(t *testing.T) {
	r, logs := newTestRegistry(t)
	h := r.MapNew()

	r.MapSet(h, 0, 1)
	r.MapSet(h, 1, 0)
	assert.Equal(t, 0, r.MapLen(h))
	assert.Equal(t, uintptr(0), r.MapGet(h, 0))
	assert.Equal(t, 2, logs.FilterMessage("sentinel write skipped").Len())
}

func TestRegistry_Batch(t *testing.T) {
	r, logs := newTestRegistry(t)
	h := r.MapNew()

	keys := []uintptr{1, 2, 3, 4}
	vals := []uintptr{10, 20, 30, 40}
	r.MapBatchSet(h, keys, vals)
	assert.Equal(t, 4, r.MapLen(h))

	out := make([]uintptr, 4)
	r.MapBatchGet(h, keys, out)
	assert.Equal(t, vals, out)

	out = make([]uintptr, 2)
	r.MapBatchRemove(h, keys[:2], out)
	assert.Equal(t, vals[:2], out)
	assert.Equal(t, 2, r.MapLen(h))

	r.MapBatchSet(h, nil, vals)
	r.MapBatchGet(h, keys, nil)
	r.MapBatchRemove(h, []uintptr{}, out)
	assert.Equal(t, 2, r.MapLen(h))
	assert.Equal(t, 1, logs.FilterMessage("empty batch set").Len())
	assert.Equal(t, 1, logs.FilterMessage("empty batch get").Len())
	assert.Equal(t, 1, logs.FilterMessage("empty batch remove").Len())
}

func TestRegistry_MapNewWithShards(t *testing.T) {
	r, _ := newTestRegistry(t)

	h := r.MapNewWithShards(200)
	m := r.lookupMap(h)
	require.NotNil(t, m)
	assert.Equal(t, 256, m.ShardCount())

	// out of range counts fall back to the registry configuration
	h = r.MapNewWithShards(1 << 30)
	assert.Equal(t, r.Config().ShardCount, r.lookupMap(h).ShardCount())
}

func TestRegistry_Iterator(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := r.MapNew()
	r.MapBatchSet(h, []uintptr{1, 2, 3}, []uintptr{10, 20, 30})

	ih := r.IteratorNew(h)
	require.NotEqual(t, NilHandle, ih)
	assert.Equal(t, 1, r.Iterators())

	got := make(map[uintptr]uintptr)
	for {
		k, v, ok := r.IteratorNext(ih)
		if !ok {
			break
		}
		got[k] = v
	}
	assert.Equal(t, map[uintptr]uintptr{1: 10, 2: 20, 3: 30}, got)
	_, _, ok := r.IteratorNext(ih)
	assert.False(t, ok)

	r.IteratorDestroy(ih)
	assert.Equal(t, 0, r.Iterators())
	assert.Equal(t, 3, r.MapLen(h))
}

func TestRegistry_IteratorOutlivesMap(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := r.MapNew()
	r.MapBatchSet(h, []uintptr{1, 2, 3, 4, 5}, []uintptr{1, 2, 3, 4, 5})

	ih := r.IteratorNew(h)
	r.MapDestroy(h)

	keys, vals := make([]uintptr, 3), make([]uintptr, 3)
	assert.Equal(t, 3, r.IteratorNextBatch(ih, keys, vals))
	assert.Equal(t, keys, vals)
	assert.Equal(t, 2, r.IteratorNextBatch(ih, keys, vals))
	assert.Equal(t, keys[:2], vals[:2])
	assert.Equal(t, 0, r.IteratorNextBatch(ih, keys, vals))
	assert.Equal(t, 0, r.IteratorNextBatch(ih, nil, vals))
	r.IteratorDestroy(ih)
}

func TestRegistry_Concurrent(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := r.MapNew()
	const workers, perWorker = 8, 2000

	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(base uintptr) {
			defer wg.Done()
			own := r.MapNew()
			defer r.MapDestroy(own)
			for i := uintptr(1); i <= perWorker; i++ {
				key := base + i
				r.MapSet(h, key, i)
				r.MapSet(own, i, key)
				if got := r.MapGet(h, key); got != i {
					t.Errorf("MapGet(%d) = %d, want %d", key, got, i)
					return
				}
				if got := r.MapGet(own, i); got != key {
					t.Errorf("own MapGet(%d) = %d, want %d", i, got, key)
					return
				}
			}
			it := r.IteratorNew(own)
			keys, vals := make([]uintptr, 64), make([]uintptr, 64)
			total := 0
			for n := r.IteratorNextBatch(it, keys, vals); n > 0; n = r.IteratorNextBatch(it, keys, vals) {
				total += n
			}
			r.IteratorDestroy(it)
			if total != perWorker {
				t.Errorf("iterated %d entries, want %d", total, perWorker)
			}
		}(uintptr(w) * perWorker)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, r.MapLen(h))
	assert.Equal(t, 1, r.Maps())
	assert.Equal(t, 0, r.Iterators())
}

func TestDefaultRegistry(t *testing.T) {
	h := MapNew()
	defer MapDestroy(h)
	assert.Same(t, Default(), Default())

	MapSet(h, 7, 70)
	MapBatchSet(h, []uintptr{8, 9}, []uintptr{80, 90})
	assert.Equal(t, uintptr(70), MapGet(h, 7))
	assert.Equal(t, 3, MapLen(h))

	out := make([]uintptr, 2)
	MapBatchGet(h, []uintptr{8, 9}, out)
	assert.Equal(t, []uintptr{80, 90}, out)

	ih := IteratorNew(h)
	k, v, ok := IteratorNext(ih)
	assert.True(t, ok)
	assert.Equal(t, k*10, v)
	keys, vals := make([]uintptr, 4), make([]uintptr, 4)
	assert.Equal(t, 2, IteratorNextBatch(ih, keys, vals))
	IteratorDestroy(ih)

	MapBatchRemove(h, []uintptr{8, 9}, out)
	assert.Equal(t, []uintptr{80, 90}, out)
	assert.Equal(t, uintptr(70), MapRemove(h, 7))
	assert.Equal(t, 0, MapLen(h))

	sh := MapNewWithShards(64)
	assert.NotEqual(t, NilHandle, sh)
	MapDestroy(sh)
}

// Package capi is the boundary used by foreign callers. Every operation
// takes opaque handles and caller buffers and never fails: an unknown handle,
// an empty buffer or a sentinel key/value turns the call into a no-op that
// returns the zero result.
//
// Outside the contract, and not detected: buffers shorter than the length the
// caller claims, and handles used after their destroy call. A destroyed handle
// is unregistered, so reusing it is a no-op in practice, but callers must not
// rely on that.
package capi

import (
	"alchemist"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (r *Registry) debug(msg string, fields ...zap.Field) {
	if ce := r.logger.Check(zapcore.DebugLevel, msg); ce != nil {
		ce.Write(fields...)
	}
}

// MapNew creates a map with the registry configuration.
func (r *Registry) MapNew() Handle {
	h := r.addMap(alchemist.NewMapWithConfig(r.cfg))
	r.debug("map created", zap.Uint64("handle", uint64(h)))
	return h
}

// MapNewWithShards creates a map with its own shard count; n is normalized
// the same way Config.ShardCount is.
func (r *Registry) MapNewWithShards(n int) Handle {
	cfg := r.cfg
	cfg.ShardCount = n
	if err := cfg.Validate(); err != nil {
		r.debug("shard count rejected, using default", zap.Int("shards", n), zap.Error(err))
		cfg = r.cfg
	}
	h := r.addMap(alchemist.NewMapWithConfig(cfg))
	r.debug("map created", zap.Uint64("handle", uint64(h)), zap.Int("shards", cfg.ShardCount))
	return h
}

// MapDestroy releases the map. Iterators created from it stay valid.
func (r *Registry) MapDestroy(h Handle) {
	m := r.popMap(h)
	if m == nil {
		r.debug("destroy of unknown map", zap.Uint64("handle", uint64(h)))
		return
	}
	m.Destroy()
	r.debug("map destroyed", zap.Uint64("handle", uint64(h)))
}

func (r *Registry) MapSet(h Handle, key, value uintptr) {
	if key == 0 || value == 0 {
		r.debug("sentinel write skipped", zap.Uint64("handle", uint64(h)), zap.Uintptr("key", key), zap.Uintptr("value", value))
		return
	}
	r.lookupMap(h).Set(key, value)
}

func (r *Registry) MapGet(h Handle, key uintptr) uintptr {
	return r.lookupMap(h).Get(key)
}

func (r *Registry) MapRemove(h Handle, key uintptr) uintptr {
	return r.lookupMap(h).Remove(key)
}

func (r *Registry) MapLen(h Handle) int {
	return r.lookupMap(h).Len()
}

func (r *Registry) MapBatchSet(h Handle, keys, values []uintptr) {
	if len(keys) == 0 || len(values) == 0 {
		r.debug("empty batch set", zap.Uint64("handle", uint64(h)))
		return
	}
	r.lookupMap(h).BatchSet(keys, values)
}

func (r *Registry) MapBatchGet(h Handle, keys, out []uintptr) {
	if len(keys) == 0 || len(out) == 0 {
		r.debug("empty batch get", zap.Uint64("handle", uint64(h)))
		return
	}
	r.lookupMap(h).BatchGet(keys, out)
}

func (r *Registry) MapBatchRemove(h Handle, keys, out []uintptr) {
	if len(keys) == 0 || len(out) == 0 {
		r.debug("empty batch remove", zap.Uint64("handle", uint64(h)))
		return
	}
	r.lookupMap(h).BatchRemove(keys, out)
}

// IteratorNew snapshots the map behind h. It returns NilHandle for an unknown map.
func (r *Registry) IteratorNew(h Handle) Handle {
	it := alchemist.NewIterator(r.lookupMap(h))
	if it == nil {
		r.debug("iterator over unknown map", zap.Uint64("map", uint64(h)))
		return NilHandle
	}
	ih := r.addIterator(it)
	r.debug("iterator created", zap.Uint64("map", uint64(h)), zap.Uint64("handle", uint64(ih)), zap.Int("entries", it.Len()))
	return ih
}

// IteratorNext returns the next pair; ok is false when exhausted or h is unknown.
func (r *Registry) IteratorNext(h Handle) (key, value uintptr, ok bool) {
	return r.lookupIterator(h).Next()
}

// IteratorNextBatch fills keysOut and valsOut and returns the number of pairs written.
func (r *Registry) IteratorNextBatch(h Handle, keysOut, valsOut []uintptr) int {
	return r.lookupIterator(h).NextBatchInto(keysOut, valsOut)
}

func (r *Registry) IteratorDestroy(h Handle) {
	it := r.popIterator(h)
	if it == nil {
		r.debug("destroy of unknown iterator", zap.Uint64("handle", uint64(h)))
		return
	}
	it.Destroy()
	r.debug("iterator destroyed", zap.Uint64("handle", uint64(h)))
}

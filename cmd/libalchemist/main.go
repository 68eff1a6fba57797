// Command libalchemist builds the C shared library:
//
//	go build -buildmode=c-shared -o libalchemist.so ./cmd/libalchemist
//
// cgo writes the matching libalchemist.h next to the library. Map and iterator
// handles are uint64_t, 0 meaning "no handle"; keys and values are uintptr_t
// and 0 is the absent sentinel. Buffers passed in must hold at least len
// elements and are not kept after the call returns.
package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"
import (
	"alchemist/capi"
	"unsafe"
)

func main() {}

func uintptrs(p *C.uintptr_t, n C.size_t) []uintptr {
	return unsafe.Slice((*uintptr)(unsafe.Pointer(p)), int(n))
}

//export alchemist_map_new
func alchemist_map_new() C.uint64_t {
	return C.uint64_t(capi.MapNew())
}

//export alchemist_map_new_with_shards
func alchemist_map_new_with_shards(shards C.size_t) C.uint64_t {
	return C.uint64_t(capi.MapNewWithShards(int(shards)))
}

//export alchemist_map_destroy
func alchemist_map_destroy(obj C.uint64_t) {
	capi.MapDestroy(capi.Handle(obj))
}

//export alchemist_map_set
func alchemist_map_set(obj C.uint64_t, key, value C.uintptr_t) {
	capi.MapSet(capi.Handle(obj), uintptr(key), uintptr(value))
}

//export alchemist_map_get
func alchemist_map_get(obj C.uint64_t, key C.uintptr_t) C.uintptr_t {
	return C.uintptr_t(capi.MapGet(capi.Handle(obj), uintptr(key)))
}

//export alchemist_map_remove
func alchemist_map_remove(obj C.uint64_t, key C.uintptr_t) C.uintptr_t {
	return C.uintptr_t(capi.MapRemove(capi.Handle(obj), uintptr(key)))
}

//export alchemist_map_len
func alchemist_map_len(obj C.uint64_t) C.size_t {
	return C.size_t(capi.MapLen(capi.Handle(obj)))
}

//export alchemist_map_batch_set
func alchemist_map_batch_set(obj C.uint64_t, keys, values *C.uintptr_t, length C.size_t) {
	if keys == nil || values == nil || length == 0 {
		return
	}
	capi.MapBatchSet(capi.Handle(obj), uintptrs(keys, length), uintptrs(values, length))
}

//export alchemist_map_batch_get
func alchemist_map_batch_get(obj C.uint64_t, keys, valuesOut *C.uintptr_t, length C.size_t) {
	if keys == nil || valuesOut == nil || length == 0 {
		return
	}
	capi.MapBatchGet(capi.Handle(obj), uintptrs(keys, length), uintptrs(valuesOut, length))
}

//export alchemist_map_batch_remove
func alchemist_map_batch_remove(obj C.uint64_t, keys, valuesOut *C.uintptr_t, length C.size_t) {
	if keys == nil || valuesOut == nil || length == 0 {
		return
	}
	capi.MapBatchRemove(capi.Handle(obj), uintptrs(keys, length), uintptrs(valuesOut, length))
}

//export alchemist_map_iterator_new
func alchemist_map_iterator_new(obj C.uint64_t) C.uint64_t {
	return C.uint64_t(capi.IteratorNew(capi.Handle(obj)))
}

//export alchemist_map_iterator_destroy
func alchemist_map_iterator_destroy(it C.uint64_t) {
	capi.IteratorDestroy(capi.Handle(it))
}

// alchemist_map_iterator_next returns 1 and writes the pair, or 0 when the
// iterator is exhausted, unknown, or an out pointer is NULL.
//
//export alchemist_map_iterator_next
func alchemist_map_iterator_next(it C.uint64_t, key, value *C.uintptr_t) C.int {
	if key == nil || value == nil {
		return 0
	}
	k, v, ok := capi.IteratorNext(capi.Handle(it))
	if !ok {
		return 0
	}
	*key = C.uintptr_t(k)
	*value = C.uintptr_t(v)
	return 1
}

//export alchemist_map_iterator_next_batch
func alchemist_map_iterator_next_batch(it C.uint64_t, keysOut, valuesOut *C.uintptr_t, maxLen C.size_t) C.size_t {
	if keysOut == nil || valuesOut == nil || maxLen == 0 {
		return 0
	}
	n := capi.IteratorNextBatch(capi.Handle(it), uintptrs(keysOut, maxLen), uintptrs(valuesOut, maxLen))
	return C.size_t(n)
}

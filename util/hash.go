package util

import (
	"encoding/binary"
	"unsafe"

	"github.com/twmb/murmur3"
)

//go:linkname runtimeMemhash runtime.memhash
//go:noescape
func runtimeMemhash(p unsafe.Pointer, seed, s uintptr) uintptr

const memHashSeed = 923

// MemHashUintptr shards a pointer-width key with the runtime hasher, which
// uses AES instructions when available. The seed differs per process.
func MemHashUintptr(key uintptr) uint32 {
	h := runtimeMemhash(unsafe.Pointer(&key), memHashSeed, unsafe.Sizeof(key))
	return uint32(h) ^ uint32(uint64(h)>>32)
}

// Murmur3Uintptr shards a pointer-width key with murmur3. Unlike MemHashUintptr
// the result is stable across processes.
func Murmur3Uintptr(key uintptr) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	return murmur3.Sum32(buf[:])
}

// ShardingFunc picks a uintptr sharding function by name. Names are
// "murmur3" and "memhash"; ok is false for anything else.
func ShardingFunc(name string) (fn func(uintptr) uint32, ok bool) {
	switch name {
	case "murmur3":
		return Murmur3Uintptr, true
	case "memhash":
		return MemHashUintptr, true
	}
	return nil, false
}

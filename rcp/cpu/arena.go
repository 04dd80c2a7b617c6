package cpu

import (
	"errors"
	"fmt"
	"unsafe"
)

var ErrArenaFull = errors.New("arena exhausted")

// Arena models RDRAM: a single buffer allocated once at startup, from which
// all memory shared with the coprocessors is carved.  Allocations are never
// freed or resized, so nothing is allocated on the per-frame path.
//
// Memory handed to a device is referred to by its Addr, the offset into the
// arena, the same way the hardware uses physical addresses.
type Arena struct {
	buf []byte
	off int
}

// NewArena allocates an arena of size bytes.
func NewArena(size int) *Arena {
	buf := make([]byte, size+CacheLineSize)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	shift := (CacheLineSize - int(addr%CacheLineSize)) % CacheLineSize
	return &Arena{buf: buf[shift : shift+size : shift+size]}
}

// Alloc returns a zeroed slice of n bytes aligned to align, which must be a
// power of two.  The slice is padded to a whole cache line and its capacity
// is limited, so appending to it reallocates instead of corrupting neighbours.
// Running out of arena memory is a configuration error and panics.
func (a *Arena) Alloc(n int, align int) []byte {
	if align < CacheLineSize {
		align = CacheLineSize
	}
	if align&(align-1) != 0 {
		panic(fmt.Sprintf("arena: alignment %d not a power of two", align))
	}
	start := (a.off + align - 1) &^ (align - 1)
	padded := (n + CacheLineSize - 1) &^ (CacheLineSize - 1)
	if start+padded > len(a.buf) {
		panic(fmt.Errorf("%w: need %d bytes, %d left", ErrArenaFull, padded, len(a.buf)-start))
	}
	a.off = start + padded
	return a.buf[start : start+n : start+padded]
}

// Used returns the number of allocated bytes, including alignment.
func (a *Arena) Used() int { return a.off }

// Size returns the total size of the arena.
func (a *Arena) Size() int { return len(a.buf) }

// Addr returns the address of p, which must point into the arena.
func (a *Arena) Addr(p []byte) Addr {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	if ptr < base || ptr+uintptr(len(p)) > base+uintptr(len(a.buf)) {
		panic("arena: slice not in arena")
	}
	return Addr(ptr - base)
}

// Slice returns the n bytes at addr.
func (a *Arena) Slice(addr Addr, n int) ([]byte, error) {
	if int(addr)+n > len(a.buf) || n < 0 {
		return nil, fmt.Errorf("arena: address %#x+%d out of range", addr, n)
	}
	return a.buf[addr : int(addr)+n : int(addr)+n], nil
}

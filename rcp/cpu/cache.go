// The CPU accesses RAM through a cache and in general assumes that there are no
// other readers or writers.  Since the stored value in the cache can divert
// from the stored value in RAM for a limited amount of time, we need to sync
// both before other components are involved.
//
// Cache operations are reached through the Cache interface, so the same code
// runs on hardware and on hosts with coherent memory.
package cpu

import (
	"unsafe"

	"github.com/clktmr/n64loop/debug"
)

const CacheLineSize = 16

// Cache provides the data cache operations required before handing memory to
// a DMA device or coprocessor.
type Cache interface {
	// Writeback causes the cache to be written back to RAM.  Call this
	// before requesting another component to read from p.
	Writeback(p []byte)

	// Invalidate causes p to be read from RAM before next access.  Call
	// this before p is written by another component.
	Invalidate(p []byte)

	// WritebackAll writes back the whole data cache.
	WritebackAll()
}

// Coherent is the Cache of a system without CPU caches or with coherent DMA.
// All operations are no-ops.
var Coherent Cache = coherent{}

type coherent struct{}

func (coherent) Writeback(p []byte)  {}
func (coherent) Invalidate(p []byte) {}
func (coherent) WritebackAll()       {}

// IsPadded returns true if p is safe for cache ops, i.e. its start is aligned
// to CacheLineSize and its end is padded to fill the cache line.
func IsPadded[T any](p []T) bool {
	var t T
	cls := CacheLineSize / int(unsafe.Sizeof(t))

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	return addr%CacheLineSize == 0 && cap(p)-len(p) >= (cls-len(p)%cls)%cls
}

// WritebackSlice writes back buf through c.
func WritebackSlice(c Cache, buf []byte) {
	debug.Assert(IsPadded(buf), "unpadded cache writeback")
	c.Writeback(buf)
}

// InvalidateSlice invalidates buf through c.
func InvalidateSlice(c Cache, buf []byte) {
	debug.Assert(IsPadded(buf), "unpadded cache invalidate")
	c.Invalidate(buf)
}

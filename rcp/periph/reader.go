package periph

import (
	"errors"
	"io"

	"github.com/clktmr/n64loop/debug"
	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/mesg"
)

var ErrNegativeOffset = errors.New("periph: negative offset")

// Reader streams arbitrarily large regions from a Device into RDRAM, split
// into chunks the device accepts.  It implements io.ReaderAt.
//
// Reader is safe for concurrent use, the device serializes the transfers.
type Reader struct {
	dev   Device
	cache cpu.Cache
	size  int64
}

// NewReader returns a reader for a device of size bytes.  Reads through
// ReadAt stop at size, ReadRegion doesn't check it.
func NewReader(dev Device, cache cpu.Cache, size int64) *Reader {
	if cache == nil {
		cache = cpu.Coherent
	}
	return &Reader{dev: dev, cache: cache, size: size}
}

// ReadRegion copies size bytes starting at devAddr into dst.  It returns
// after the last chunk has completed.  Device faults are fatal and panic.
func (r *Reader) ReadRegion(devAddr cpu.Addr, dst []byte, size int) {
	debug.Assert(len(dst) >= size, "periph: destination too small")
	if size <= 0 {
		return
	}

	dst = dst[:size]
	r.cache.Invalidate(dst)

	done := mesg.NewQueue[*IOMesg](1)
	req := IOMesg{RetQueue: done}
	maxChunk := r.dev.MaxChunk()

	for remaining := size; remaining > 0; {
		chunk := min(remaining, maxChunk)

		req.DevAddr = devAddr
		req.Dst = dst[:chunk]
		req.Err = nil
		r.dev.StartDMA(&req)

		if completed := done.Recv(); completed.Err != nil {
			panic(completed.Err)
		}

		devAddr += cpu.Addr(chunk)
		dst = dst[chunk:]
		remaining -= chunk
	}
}

// ReadAt implements io.ReaderAt.
func (r *Reader) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	left := r.size - off
	if left <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) >= left {
		p = p[:left]
		err = io.EOF
	}

	r.ReadRegion(cpu.Addr(off), p, len(p))
	return len(p), err
}

// Size returns the size of the device in bytes.
func (r *Reader) Size() int64 { return r.size }

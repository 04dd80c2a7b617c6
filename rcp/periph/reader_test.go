package periph_test

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/periph"
)

// recorder is a device which completes every request immediately from a
// backing slice and records what was requested.
type recorder struct {
	src      []byte
	maxChunk int
	reqs     []periph.IOMesg
	dstBase  []byte
	dstOffs  []int
}

func (r *recorder) MaxChunk() int { return r.maxChunk }

func (r *recorder) StartDMA(req *periph.IOMesg) {
	r.reqs = append(r.reqs, *req)
	if r.dstBase != nil {
		r.dstOffs = append(r.dstOffs, offsetOf(r.dstBase, req.Dst))
	}
	copy(req.Dst, r.src[req.DevAddr:])
	req.RetQueue.Send(req)
}

func offsetOf(base, p []byte) int {
	for i := range base {
		if &base[i] == &p[0] {
			return i
		}
	}
	return -1
}

// invalidations counts cache invalidations.
type invalidations struct {
	n     int
	bytes int
}

func (c *invalidations) Writeback(p []byte)  {}
func (c *invalidations) Invalidate(p []byte) { c.n++; c.bytes += len(p) }
func (c *invalidations) WritebackAll()       {}

func TestReadRegionChunks(t *testing.T) {
	const C = 16384
	const S = 40000

	src := make([]byte, S+100)
	rand.New(rand.NewSource(1)).Read(src)
	dst := make([]byte, S)
	dev := &recorder{src: src, maxChunk: C, dstBase: dst}
	cache := &invalidations{}

	r := periph.NewReader(dev, cache, int64(len(src)))
	r.ReadRegion(0x40, dst, S)

	wantSizes := []int{16384, 16384, 7232}
	wantOffs := []int{0, 16384, 32768}
	if len(dev.reqs) != len(wantSizes) {
		t.Fatalf("issued %d chunks, want %d", len(dev.reqs), len(wantSizes))
	}
	for i, req := range dev.reqs {
		if len(req.Dst) != wantSizes[i] {
			t.Errorf("chunk %d: size %d, want %d", i, len(req.Dst), wantSizes[i])
		}
		if req.DevAddr != cpu.Addr(0x40+wantOffs[i]) {
			t.Errorf("chunk %d: device address %#x, want %#x", i, req.DevAddr, 0x40+wantOffs[i])
		}
		if dev.dstOffs[i] != wantOffs[i] {
			t.Errorf("chunk %d: destination offset %d, want %d", i, dev.dstOffs[i], wantOffs[i])
		}
	}
	if !bytes.Equal(dst, src[0x40:0x40+S]) {
		t.Error("destination doesn't match source")
	}
	if cache.n != 1 || cache.bytes != S {
		t.Errorf("invalidated %d times (%d bytes), want once (%d bytes)", cache.n, cache.bytes, S)
	}
}

func TestReadRegionChunkProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for range 200 {
		C := 1 + rng.Intn(4096)
		S := rng.Intn(8 * C)
		dev := &recorder{src: make([]byte, S), maxChunk: C}
		r := periph.NewReader(dev, nil, int64(S))
		r.ReadRegion(0, make([]byte, S), S)

		if want := (S + C - 1) / C; len(dev.reqs) != want {
			t.Fatalf("S=%d C=%d: %d chunks, want %d", S, C, len(dev.reqs), want)
		}
		remaining, next := S, cpu.Addr(0)
		for _, req := range dev.reqs {
			n := len(req.Dst)
			if n == 0 || n > C {
				t.Fatalf("S=%d C=%d: invalid chunk size %d", S, C, n)
			}
			if req.DevAddr != next {
				t.Fatalf("S=%d C=%d: chunk at %#x, want %#x", S, C, req.DevAddr, next)
			}
			remaining -= n
			next += cpu.Addr(n)
		}
		if remaining != 0 {
			t.Fatalf("S=%d C=%d: %d bytes remaining", S, C, remaining)
		}
	}
}

func TestManager(t *testing.T) {
	src := make([]byte, 100_000)
	rand.New(rand.NewSource(3)).Read(src)

	m := periph.NewManager(bytes.NewReader(src), 4, 1000, nil)
	m.Start()
	r := periph.NewReader(m, nil, int64(len(src)))

	// Concurrent readers share the manager.
	results := make(chan error)
	for i := range 4 {
		go func() {
			off := i * 20_000
			dst := make([]byte, 25_000)
			r.ReadRegion(cpu.Addr(off), dst, len(dst))
			if !bytes.Equal(dst, src[off:off+len(dst)]) {
				results <- errors.New("data mismatch")
				return
			}
			results <- nil
		}()
	}
	for range 4 {
		if err := <-results; err != nil {
			t.Fatal(err)
		}
	}

	requests, n := m.Stats()
	if requests != 100 || n != 100_000 {
		t.Errorf("Stats() = %d requests, %d bytes", requests, n)
	}
}

func TestManagerFault(t *testing.T) {
	m := periph.NewManager(bytes.NewReader(make([]byte, 10)), 1, 0, nil)
	m.Start()
	r := periph.NewReader(m, nil, 0)

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, periph.ErrDeviceFault) {
			t.Fatalf("recovered %v, want ErrDeviceFault", err)
		}
	}()
	r.ReadRegion(0, make([]byte, 20), 20)
}

func TestReadAt(t *testing.T) {
	src := []byte("If a program is too slow, it must have a loop.\n")
	dev := &recorder{src: src, maxChunk: 8}
	r := periph.NewReader(dev, nil, int64(len(src)))

	got, err := io.ReadAll(io.NewSectionReader(r, 0, 1<<20))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("got %q", got)
	}

	if _, err := r.ReadAt(make([]byte, 4), int64(len(src))); err != io.EOF {
		t.Errorf("read at end: %v, want EOF", err)
	}
}

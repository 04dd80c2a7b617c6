// Package periph implements access to the read-only cartridge on the
// peripheral interface (PI) bus.
//
// The PI supports only a single DMA transfer at a time and a transfer has a
// maximum size.  All transfers are therefore funneled through one Manager,
// which serves requests strictly one after another, and large reads are split
// into chunks by a Reader.
package periph

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	units "github.com/docker/go-units"

	"github.com/clktmr/n64loop/debug"
	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/mesg"
)

// DefaultMaxChunk is the largest DMA transfer issued by default.  It's small
// enough to not block other users of the PI bus for long.
const DefaultMaxChunk = 16 << 10

var (
	ErrChunkSize   = errors.New("dma transfer exceeds maximum chunk size")
	ErrDeviceFault = errors.New("pi device fault")
)

// IOMesg describes a single DMA transfer from the PI bus into RDRAM.  The
// number of bytes transferred is len(Dst).
type IOMesg struct {
	DevAddr  cpu.Addr // source address on the PI bus
	Dst      []byte   // destination in RDRAM
	RetQueue *mesg.Queue[*IOMesg]

	// Err is set by the device if the transfer failed.  Real hardware
	// never reports failures, a software device might.
	Err error
}

// Device accepts DMA requests.  Exactly one completion is sent to the
// request's RetQueue per call to StartDMA.
type Device interface {
	StartDMA(req *IOMesg)
	MaxChunk() int
}

// Manager is the PI manager.  It owns the PI bus and executes the queued
// requests one at a time against the cartridge image.
//
// Manager is safe for concurrent use.
type Manager struct {
	dev      io.ReaderAt
	cmdQ     *mesg.Queue[*IOMesg]
	maxChunk int
	log      *debug.Logger

	requests atomic.Uint64
	bytes    atomic.Uint64
	start    sync.Once
}

// NewManager returns a manager serving reads from dev.  Up to queueLen
// requests may be pending before StartDMA blocks.
func NewManager(dev io.ReaderAt, queueLen, maxChunk int, log *debug.Logger) *Manager {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}
	return &Manager{
		dev:      dev,
		cmdQ:     mesg.NewQueue[*IOMesg](queueLen),
		maxChunk: maxChunk,
		log:      log.Named("pi"),
	}
}

// Start launches the manager goroutine.  Calling it more than once has no
// effect.
func (m *Manager) Start() {
	m.start.Do(func() {
		m.log.Debugf("manager started, queue %d, max chunk %s",
			m.cmdQ.Cap(), units.BytesSize(float64(m.maxChunk)))
		go m.run()
	})
}

// StartDMA queues req.  It blocks if the manager's queue is full.
func (m *Manager) StartDMA(req *IOMesg) {
	m.cmdQ.Send(req)
}

// MaxChunk returns the maximum size of a single transfer.
func (m *Manager) MaxChunk() int { return m.maxChunk }

// Stats returns the number of served requests and transferred bytes.
func (m *Manager) Stats() (requests, bytes uint64) {
	return m.requests.Load(), m.bytes.Load()
}

func (m *Manager) run() {
	for {
		req := m.cmdQ.Recv()
		req.Err = m.transfer(req)
		req.RetQueue.Send(req)
	}
}

func (m *Manager) transfer(req *IOMesg) error {
	if len(req.Dst) > m.maxChunk {
		return fmt.Errorf("%w: %d > %d", ErrChunkSize, len(req.Dst), m.maxChunk)
	}
	n, err := m.dev.ReadAt(req.Dst, int64(req.DevAddr))
	m.requests.Add(1)
	m.bytes.Add(uint64(n))
	if n < len(req.Dst) {
		return fmt.Errorf("%w: read %d of %d bytes at %#x: %v",
			ErrDeviceFault, n, len(req.Dst), req.DevAddr, err)
	}
	return nil
}

// Package draw implements a software display processor.  It executes the fill
// subset of the display list commands against framebuffers in RDRAM, drawing
// through their pix.Driver interface.
package draw

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/embeddedgo/display/pix"

	"github.com/clktmr/n64loop/debug"
	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/rdp"
	"github.com/clktmr/n64loop/rcp/rsp"
	"github.com/clktmr/n64loop/rcp/video"
)

var (
	ErrCommand      = errors.New("draw: unsupported command")
	ErrColorImage   = errors.New("draw: invalid color image")
	ErrNoColorImage = errors.New("draw: fill without color image")
	ErrCycleType    = errors.New("draw: fill rectangle requires fill cycle type")
	ErrPipeSync     = errors.New("draw: fill color changed without pipe sync")
	ErrNoEnd        = errors.New("draw: display list not terminated")
)

// RDP executes graphics tasks.  Framebuffers must be bound before a display
// list can select them as color image.
type RDP struct {
	arena *cpu.Arena
	log   *debug.Logger

	mu      sync.Mutex
	targets map[cpu.Addr]*video.RGBA16

	commands atomic.Uint64
	fills    atomic.Uint64
}

func NewRDP(a *cpu.Arena, log *debug.Logger) *RDP {
	return &RDP{
		arena:   a,
		log:     log.Named("rdp"),
		targets: make(map[cpu.Addr]*video.RGBA16),
	}
}

// Bind makes fb available as color image at its address.
func (p *RDP) Bind(fb *video.RGBA16) {
	p.mu.Lock()
	p.targets[fb.Addr()] = fb
	p.mu.Unlock()
}

// Stats returns the number of executed commands and fills.
func (p *RDP) Stats() (commands, fills uint64) {
	return p.commands.Load(), p.fills.Load()
}

type state struct {
	segments [16]cpu.Addr
	target   pix.Driver
	bounds   image.Rectangle
	scissor  image.Rectangle
	cycle    rdp.CycleType
	color    video.Color16
	synced   bool
}

// Execute runs the display list referenced by t until its end command.
func (p *RDP) Execute(t *rsp.Task) error {
	buf, err := p.arena.Slice(t.DataPtr, t.DataSize)
	if err != nil {
		return err
	}
	st := state{synced: true}
	for off := 0; off+rdp.CommandSize <= len(buf); off += rdp.CommandSize {
		cmd := rdp.ReadCommand(buf[off:])
		p.commands.Add(1)
		end, err := p.exec(&st, cmd)
		if err != nil {
			return fmt.Errorf("command %d (%#02x): %w", off/rdp.CommandSize, uint8(cmd.Opcode()), err)
		}
		if end {
			return nil
		}
	}
	return ErrNoEnd
}

func (p *RDP) exec(st *state, cmd rdp.Command) (end bool, err error) {
	switch cmd.Opcode() {
	case rdp.OpMoveWord:
		seg, base := cmd.Segment()
		st.segments[seg] = base

	case rdp.OpSetScissor:
		st.scissor, _ = cmd.Scissor()

	case rdp.OpSetOtherModeH:
		if ct, ok := cmd.CycleType(); ok {
			st.cycle = ct
		}

	case rdp.OpSetColorImage:
		addr, width, format, bbp := cmd.ColorImage()
		addr = st.segments[addr>>24&0xf] + addr&0xffffff
		p.mu.Lock()
		fb := p.targets[addr]
		p.mu.Unlock()
		if fb == nil {
			return false, fmt.Errorf("%w: no framebuffer at %#x", ErrColorImage, addr)
		}
		if format != rdp.RGBA || bbp != rdp.BBP16 || width != fb.Bounds().Dx() {
			return false, fmt.Errorf("%w: width %d", ErrColorImage, width)
		}
		st.target = fb
		st.bounds = fb.Bounds()

	case rdp.OpSetFillColor:
		if !st.synced {
			return false, ErrPipeSync
		}
		st.color = video.Color16(cmd.FillColor())

	case rdp.OpFillRectangle:
		if st.target == nil {
			return false, ErrNoColorImage
		}
		if st.cycle != rdp.CycleTypeFill {
			return false, ErrCycleType
		}
		r := cmd.FillRect().Intersect(st.scissor).Intersect(st.bounds)
		st.target.SetColor(st.color)
		st.target.Fill(r)
		st.synced = false
		p.fills.Add(1)

	case rdp.OpPipeSync:
		st.synced = true

	case rdp.OpFullSync:
		if st.target != nil {
			st.target.Flush()
		}

	case rdp.OpTileSync, rdp.OpLoadSync:

	case rdp.OpEndDL:
		return true, nil

	default:
		return false, ErrCommand
	}
	return false, nil
}

// Package display implements a double buffered framebuffer.  One buffer is
// scanned out by the video interface while the other one is the target of
// rendering, their roles toggle once per completed frame.
package display

import (
	"errors"
	"image"
	"time"

	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/video"
)

var ErrSwapOutstanding = errors.New("display: swap while task outstanding")

// Completion reports whether rendering which may reference the target buffer
// is still in progress.  Release is called once the completed frame was
// swapped.
type Completion interface {
	Outstanding() bool
	Release()
}

// Display holds the two framebuffers of a double buffered display.
// buffers[0] is front initially, so the first target is buffers[1].
type Display struct {
	buffers [2]*video.RGBA16
	front   int
	frames  uint64
	client  Completion

	start     time.Time
	frametime time.Duration
}

// NewDisplay allocates both framebuffers from the arena.  Swapping is refused
// while client has an outstanding task.
func NewDisplay(a *cpu.Arena, resolution image.Point, client Completion) *Display {
	return &Display{
		buffers: [2]*video.RGBA16{
			video.NewRGBA16(a, resolution),
			video.NewRGBA16(a, resolution),
		},
		client: client,
		start:  time.Now(),
	}
}

// Target returns the buffer to render the next frame into.
func (p *Display) Target() *video.RGBA16 { return p.buffers[p.front^1] }

// Front returns the last completed buffer.
func (p *Display) Front() *video.RGBA16 { return p.buffers[p.front] }

// Buffers returns both framebuffers in allocation order.
func (p *Display) Buffers() [2]*video.RGBA16 { return p.buffers }

// Swap makes the target the new front buffer.  It must only be called after
// the frame's task completed, otherwise it panics.
func (p *Display) Swap() {
	if p.client != nil && p.client.Outstanding() {
		panic(ErrSwapOutstanding)
	}
	if p.client != nil {
		p.client.Release()
	}
	p.front ^= 1
	p.frames++

	now := time.Now()
	p.frametime = now.Sub(p.start)
	p.start = now
}

// Frames returns the number of completed swaps.
func (p *Display) Frames() uint64 { return p.frames }

func (p *Display) FPS() float32 {
	if p.frametime == 0 {
		return 0
	}
	return 1e9 / float32(p.frametime)
}

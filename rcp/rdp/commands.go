// Package rdp encodes display lists for the display processor.  Only the
// commands needed for simple 2D fills are provided, together with a decoder
// used by the software display processor.  Further documentation can be found
// in the official docs.
package rdp

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/clktmr/n64loop/debug"
	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/video"
)

// Each command is a 64-bit dword, stored as two big endian words.
type Command struct{ UW, LW uint32 }

// CommandSize is the size of an encoded command in bytes.
const CommandSize = 8

// Opcode is the upper byte of a command.
type Opcode uint8

const (
	OpMoveWord      Opcode = 0xdb
	OpEndDL         Opcode = 0xdf
	OpSetOtherModeH Opcode = 0xe3
	OpPipeSync      Opcode = 0xe7
	OpTileSync      Opcode = 0xe8
	OpFullSync      Opcode = 0xe9
	OpSetScissor    Opcode = 0xed
	OpLoadSync      Opcode = 0xf1
	OpFillRectangle Opcode = 0xf6
	OpSetFillColor  Opcode = 0xf7
	OpSetColorImage Opcode = 0xff
)

func (c Command) Opcode() Opcode { return Opcode(c.UW >> 24) }

func (c Command) put(b []byte) {
	binary.BigEndian.PutUint32(b, c.UW)
	binary.BigEndian.PutUint32(b[4:], c.LW)
}

// ReadCommand decodes the command at the start of b.
func ReadCommand(b []byte) Command {
	return Command{
		UW: binary.BigEndian.Uint32(b),
		LW: binary.BigEndian.Uint32(b[4:]),
	}
}

type ImageFormat uint32

const (
	RGBA ImageFormat = iota << 21
	YUV
	ColorIdx // Color Palette
	IA       // Intensity with alpha
	I        // Intensity
)

type BitDepth uint32

const (
	BBP4 BitDepth = iota << 19
	BBP8
	BBP16
	BBP32
)

const moveWordSegment = 0x06

// SetSegment sets the base address of one of the 16 segments used for
// segmented addressing.  Segment zero is usually mapped directly to RDRAM.
func (dl *DisplayList) SetSegment(seg int, base cpu.Addr) {
	debug.Assert(seg >= 0 && seg < 16, "invalid segment")
	dl.push(Command{
		UW: uint32(OpMoveWord)<<24 | moveWordSegment<<16 | uint32(seg*4),
		LW: uint32(base),
	})
}

// Sets the framebuffer to render the final image into.
func (dl *DisplayList) SetColorImage(addr cpu.Addr, width int, format ImageFormat, bbp BitDepth) {
	debug.Assert(width > 0 && width <= 1<<10, "color image width")

	cmd := uint32(OpSetColorImage)<<24 | uint32(format) | uint32(bbp) | uint32(width-1)
	dl.push(Command{UW: cmd, LW: uint32(addr)})
	dl.bbp = bbp
}

type InterlaceFrame uint8

const (
	InterlaceNone InterlaceFrame = 0 // draw all lines
	InterlaceOdd  InterlaceFrame = 2 // skip odd lines
	InterlaceEven InterlaceFrame = 3 // skip even lines
)

// Everything outside `r` is skipped when rendering.  Additionally odd or even
// lines can be skipped to render interlaced frames.
func (dl *DisplayList) SetScissor(r image.Rectangle, i InterlaceFrame) {
	cmd := uint64(OpSetScissor) << 56
	cmd |= uint64(r.Min.X)<<46 | uint64(r.Min.Y)<<34 | uint64(r.Max.X)<<14 | uint64(r.Max.Y)<<2
	cmd |= uint64(i) << 24
	dl.push(Command{UW: uint32(cmd >> 32), LW: uint32(cmd)})
}

type CycleType uint32

const (
	CycleTypeOne CycleType = iota << 20
	CycleTypeTwo
	CycleTypeCopy
	CycleTypeFill
)

const (
	cycleTypeShift = 20
	cycleTypeLen   = 2
)

// SetCycleType sets the pipeline mode in the high word of the other modes.
func (dl *DisplayList) SetCycleType(t CycleType) {
	cmd := uint32(OpSetOtherModeH)<<24 | (32-cycleTypeShift-cycleTypeLen)<<8 | (cycleTypeLen - 1)
	dl.push(Command{UW: cmd, LW: uint32(t)})
}

// Sets the color for the next FillRectangle() call.  The color is packed
// according to the bit depth of the current color image.
func (dl *DisplayList) SetFillColor(c color.Color) {
	var ci uint32
	switch dl.bbp {
	case BBP32:
		r, g, b, a := c.RGBA()
		ci = (r>>8)<<24 | (g>>8)<<16 | (b>>8)<<8 | (a >> 8)
	default:
		ci = uint32(video.Pack16(c))
		ci |= ci << 16
	}
	dl.push(Command{UW: uint32(OpSetFillColor) << 24, LW: ci})
}

// Draws a rectangle filled with the color set by SetFillColor().  In fill
// mode the lower right corner is inclusive, so r.Max is encoded as r.Max-1.
func (dl *DisplayList) FillRectangle(r image.Rectangle) {
	debug.Assert(!r.Empty(), "empty fill rectangle")
	lr := r.Max.Sub(image.Point{1, 1})
	cmd := uint64(OpFillRectangle) << 56
	cmd |= uint64(lr.X)<<46 | uint64(lr.Y)<<34 | uint64(r.Min.X)<<14 | uint64(r.Min.Y)<<2
	dl.push(Command{UW: uint32(cmd >> 32), LW: uint32(cmd)})
}

type SyncCommand uint32

const (
	// Waits until all previous commands have finished reading and writing
	// to RDRAM.  Additionally raises the RDP interrupt.  Use to sync memory
	// access between RDP and other components (e.g. switching framebuffers).
	Full SyncCommand = SyncCommand(OpFullSync) << 24
	Load SyncCommand = SyncCommand(OpLoadSync) << 24
	Pipe SyncCommand = SyncCommand(OpPipeSync) << 24

	// Writing to a tile waits until an immediately previous command finished
	// reading from the tile.
	Tile SyncCommand = SyncCommand(OpTileSync) << 24
)

func (dl *DisplayList) Sync(s SyncCommand) {
	dl.push(Command{UW: uint32(s)})
}

// End terminates the display list.
func (dl *DisplayList) End() {
	dl.push(Command{UW: uint32(OpEndDL) << 24})
}

// Decoding

// field12 extracts a 10.2 fixed point coordinate at bit offset shift and
// truncates it to an integer.
func field12(v uint32, shift uint) int { return int(v>>shift&0xfff) >> 2 }

// Segment returns the segment and base address of a OpMoveWord command.
func (c Command) Segment() (seg int, base cpu.Addr) {
	return int(c.UW&0xffff) / 4, cpu.Addr(c.LW)
}

// ColorImage returns the parameters of a OpSetColorImage command.
func (c Command) ColorImage() (addr cpu.Addr, width int, format ImageFormat, bbp BitDepth) {
	return cpu.Addr(c.LW), int(c.UW&0x3ff) + 1,
		ImageFormat(c.UW & (7 << 21)), BitDepth(c.UW & (3 << 19))
}

// Scissor returns the rectangle of a OpSetScissor command.
func (c Command) Scissor() (image.Rectangle, InterlaceFrame) {
	r := image.Rect(field12(c.UW, 12), field12(c.UW, 0), field12(c.LW, 12), field12(c.LW, 0))
	return r, InterlaceFrame(c.LW >> 24 & 3)
}

// CycleType returns the cycle type of a OpSetOtherModeH command setting it.
func (c Command) CycleType() (CycleType, bool) {
	shift := 32 - int(c.UW>>8&0xff) - int(c.UW&0xff) - 1
	if shift != cycleTypeShift {
		return 0, false
	}
	return CycleType(c.LW & (3 << cycleTypeShift)), true
}

// FillColor returns the packed color of a OpSetFillColor command.
func (c Command) FillColor() uint32 { return c.LW }

// FillRect returns the rectangle of a OpFillRectangle command, with an
// exclusive lower right corner.
func (c Command) FillRect() image.Rectangle {
	return image.Rect(field12(c.LW, 12), field12(c.LW, 0),
		field12(c.UW, 12)+1, field12(c.UW, 0)+1)
}

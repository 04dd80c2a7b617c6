package video

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/embeddedgo/display/pix"

	"github.com/clktmr/n64loop/rcp/cpu"
)

// Alignment of framebuffers in RDRAM.
const Alignment = 64

var _ pix.Driver = (*RGBA16)(nil)

// RGBA16 is a framebuffer storing pixels in RGBA with 16bit (5:5:5:1), big
// endian, the format the display processor renders and the VI scans out.
//
// Implements draw.Image, so all the drawing tools from the standard library can
// be used, and pix.Driver.
type RGBA16 struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle

	addr cpu.Addr
	fill uint16
}

// NewRGBA16 allocates a framebuffer of the given size from the arena.
func NewRGBA16(a *cpu.Arena, size image.Point) *RGBA16 {
	pix := a.Alloc(size.X*size.Y*2, Alignment)
	return &RGBA16{
		Pix:    pix,
		Stride: 2 * size.X,
		Rect:   image.Rectangle{Max: size},
		addr:   a.Addr(pix),
	}
}

// Addr returns the framebuffer's address in RDRAM.
func (p *RGBA16) Addr() cpu.Addr { return p.addr }

func (p *RGBA16) ColorModel() color.Model { return RGBA16Model }

func (p *RGBA16) Bounds() image.Rectangle { return p.Rect }

func (p *RGBA16) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	return p.RGBA16At(x, y)
}

// RGBA16At returns the raw pixel value at x, y.
func (p *RGBA16) RGBA16At(x, y int) Color16 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return 0
	}
	offset := p.PixOffset(x, y)
	return Color16(uint16(p.Pix[offset])<<8 | uint16(p.Pix[offset+1]))
}

func (p *RGBA16) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	offset := p.PixOffset(x, y)
	col := Pack16(c)
	p.Pix[offset] = uint8(col >> 8)
	p.Pix[offset+1] = uint8(col & 0xff)
}

func (p *RGBA16) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

// FillRaw sets all pixels in r to the raw value c.  r is clipped to the
// framebuffer bounds.
func (p *RGBA16) FillRaw(r image.Rectangle, c Color16) {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return
	}
	hi, lo := uint8(c>>8), uint8(c)
	row := p.Pix[p.PixOffset(r.Min.X, r.Min.Y):][:2*r.Dx()]
	for i := 0; i < len(row); i += 2 {
		row[i], row[i+1] = hi, lo
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		copy(p.Pix[p.PixOffset(r.Min.X, y):], row)
	}
}

// ToRGBA converts the framebuffer into dst, which must have the same bounds.
func (p *RGBA16) ToRGBA(dst *image.RGBA) {
	r := p.Rect.Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := p.Pix[p.PixOffset(r.Min.X, y):]
		out := dst.Pix[dst.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			c := Color16(uint16(src[2*x])<<8 | uint16(src[2*x+1]))
			out[4*x+0], out[4*x+1], out[4*x+2], out[4*x+3] = c.RGBA8()
		}
	}
}

// pix.Driver implementation

func (p *RGBA16) SetDir(dir int) image.Rectangle { return p.Rect }

func (p *RGBA16) Draw(r image.Rectangle, src image.Image, sp image.Point,
	mask image.Image, mp image.Point, op draw.Op) {
	draw.DrawMask(p, r, src, sp, mask, mp, op)
}

func (p *RGBA16) SetColor(c color.Color) { p.fill = uint16(Pack16(c)) }

func (p *RGBA16) Fill(r image.Rectangle) { p.FillRaw(r, Color16(p.fill)) }

func (p *RGBA16) Flush() {}

func (p *RGBA16) Err(clear bool) error { return nil }

// Color16 is a RGBA 5:5:5:1 pixel.
type Color16 uint16

func (c Color16) RGBA() (r, g, b, a uint32) {
	r8, g8, b8, a8 := c.RGBA8()
	r, g, b, a = uint32(r8), uint32(g8), uint32(b8), uint32(a8)
	return r<<8 | r, g<<8 | g, b<<8 | b, a<<8 | a
}

// RGBA8 returns the 8 bit channels, replicating the high bits of the 5 bit
// channels into the low bits.
func (c Color16) RGBA8() (r, g, b, a uint8) {
	expand := func(v uint16) uint8 { v &= 0x1f; return uint8(v<<3 | v>>2) }
	r = expand(uint16(c) >> 11)
	g = expand(uint16(c) >> 6)
	b = expand(uint16(c) >> 1)
	a = uint8(uint16(c)&1) * 0xff
	return
}

// Pack16 converts any color to RGBA 5:5:5:1.
func Pack16(c color.Color) Color16 {
	if c, ok := c.(Color16); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	return Color16((r & 0xf800) | (g&0xf800)>>5 | (b&0xf800)>>10 | a>>15)
}

var RGBA16Model color.Model = color.ModelFunc(func(c color.Color) color.Color {
	return Pack16(c)
})

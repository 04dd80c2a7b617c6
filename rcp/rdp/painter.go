package rdp

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/embeddedgo/display/pix"
)

var ErrUnsupported = errors.New("rdp: unsupported draw operation")

var _ pix.Driver = (*Painter)(nil)

// Painter is a pix.Driver that records fills into a display list instead of
// drawing them.  Every fill is followed by a pipe sync.  Only uniform sources
// without a mask can be drawn, anything else is reported by Err.
type Painter struct {
	dl     *DisplayList
	bounds image.Rectangle
	err    error
}

func NewPainter(dl *DisplayList, bounds image.Rectangle) *Painter {
	return &Painter{dl: dl, bounds: bounds}
}

func (p *Painter) SetDir(dir int) image.Rectangle { return p.bounds }

func (p *Painter) Draw(r image.Rectangle, src image.Image, sp image.Point,
	mask image.Image, mp image.Point, op draw.Op) {
	u, ok := src.(*image.Uniform)
	if !ok || mask != nil {
		p.err = ErrUnsupported
		return
	}
	p.SetColor(u.C)
	p.Fill(r)
}

func (p *Painter) SetColor(c color.Color) { p.dl.SetFillColor(c) }

func (p *Painter) Fill(r image.Rectangle) {
	r = r.Intersect(p.bounds)
	if r.Empty() {
		return
	}
	p.dl.FillRectangle(r)
	p.dl.Sync(Pipe)
}

func (p *Painter) Flush() {}

func (p *Painter) Err(clear bool) error {
	err := p.err
	if clear {
		p.err = nil
	}
	return err
}

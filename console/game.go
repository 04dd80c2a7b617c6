// Package console runs the frame loop: poll input, update the game, record
// the frame's display list, submit it to the scheduler, wait for completion and
// swap the framebuffers.
package console

import (
	"image"
	"image/color"

	"golang.org/x/image/colornames"

	"github.com/clktmr/n64loop/drivers/controller"
	"github.com/clktmr/n64loop/rcp/rdp"
)

// Gamelooper represents a game instance that can be updated and drawn.
type Gamelooper interface {
	// Update is called every frame with the state of the first controller.
	// Return an error to exit the game loop, nil to continue.
	Update(pad *controller.Controller) error

	// Draw is called every frame to record the game's fills.  The color
	// image and scissor are already set up.
	Draw(screen *Screen)
}

// Screen records fill rectangles into the frame's display list.
type Screen struct {
	painter *rdp.Painter
	size    image.Point
}

func (s *Screen) Bounds() image.Rectangle { return image.Rectangle{Max: s.size} }

// DrawRect fills w x h pixels at x, y.  Rectangles fully offscreen to the left
// or top are skipped, partially offscreen ones are clamped to the screen.
func (s *Screen) DrawRect(x, y, w, h int, c color.Color) {
	if x < -w || y < -h {
		return
	}
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	s.painter.SetColor(c)
	s.painter.Fill(image.Rect(x, y, x+w, y+h))
}

const (
	SquareSize    = 32
	BorderWidth   = 2
	StickDeadzone = 10
)

const VelocityScale float32 = 1 / 24.0

var Background = color.RGBA{0, 64, 0, 255}

// Square is a bordered square moved by the analog stick.
type Square struct {
	X, Y   float32
	screen image.Point
}

// NewSquare returns a square centered on a screen of the given size.
func NewSquare(screen image.Point) *Square {
	return &Square{
		X:      float32(screen.X/2 - SquareSize/2),
		Y:      float32(screen.Y/2 - SquareSize/2),
		screen: screen,
	}
}

func (s *Square) Update(pad *controller.Controller) error {
	if x := controller.Deadzone(pad.X(), StickDeadzone); x != 0 {
		s.X += float32(x) * VelocityScale
	}
	if y := controller.Deadzone(pad.Y(), StickDeadzone); y != 0 {
		s.Y -= float32(y) * VelocityScale
	}

	if s.X < 0 {
		s.X = 0
	}
	if s.X > float32(s.screen.X-SquareSize-1) {
		s.X = float32(s.screen.X - SquareSize - 1)
	}
	if s.Y < 0 {
		s.Y = 0
	}
	if s.Y > float32(s.screen.Y-SquareSize-1) {
		s.Y = float32(s.screen.Y - SquareSize - 1)
	}
	return nil
}

func (s *Square) Draw(screen *Screen) {
	x, y := int(s.X), int(s.Y)
	size := screen.Bounds().Size()
	screen.DrawRect(0, 0, size.X, size.Y, Background)
	screen.DrawRect(x, y, SquareSize, SquareSize, colornames.White)

	screen.DrawRect(x, y, SquareSize, BorderWidth, colornames.Black)
	screen.DrawRect(x, y, BorderWidth, SquareSize, colornames.Black)
	screen.DrawRect(x+SquareSize-BorderWidth, y, BorderWidth, SquareSize, colornames.Black)
	screen.DrawRect(x, y+SquareSize-BorderWidth, SquareSize, BorderWidth, colornames.Black)
}

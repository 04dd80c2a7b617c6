// Package window presents the frame loop in a desktop window.  Arrow keys
// and the left stick of a standard gamepad drive the first controller port.
package window

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/clktmr/n64loop/console"
	"github.com/clktmr/n64loop/drivers/controller"
	"github.com/clktmr/n64loop/internal/host"
)

// Run opens a window scaled by scale and blocks until it is closed, escape
// is pressed or the frame loop fails.
func Run(rt *console.Runtime, input *controller.Latest, title string, scale int) error {
	res := rt.VI().Preset().Resolution()
	g := &game{
		rt:    rt,
		input: input,
		loop:  host.Loop(rt),
		img:   image.NewRGBA(image.Rectangle{Max: res}),
		fbImg: ebiten.NewImage(res.X, res.Y),
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(res.X*scale, res.Y*scale)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)
	if err == ebiten.Termination {
		return nil
	}
	return err
}

type game struct {
	rt    *console.Runtime
	input *controller.Latest
	loop  <-chan error
	img   *image.RGBA
	fbImg *ebiten.Image
	pads  []ebiten.GamepadID
}

func (g *game) Update() error {
	select {
	case err := <-g.loop:
		return err
	default:
	}
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	keys := host.Keys{
		Up:    ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:  ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Left:  ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right: ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		A:     ebiten.IsKeyPressed(ebiten.KeyX),
		B:     ebiten.IsKeyPressed(ebiten.KeyC),
		Z:     ebiten.IsKeyPressed(ebiten.KeyZ),
		Start: ebiten.IsKeyPressed(ebiten.KeyEnter),
	}
	s := keys.State()
	g.pads = ebiten.AppendGamepadIDs(g.pads[:0])
	for _, id := range g.pads {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		s.X = axis(s.X, ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal))
		// Gamepad axes point down, controller sticks point up.
		s.Y = axis(s.Y, -ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical))
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			s.Down |= controller.ButtonA
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightRight) {
			s.Down |= controller.ButtonB
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterRight) {
			s.Down |= controller.ButtonStart
		}
		break
	}
	g.input.Set(0, s)
	return nil
}

// axis adds a gamepad axis in [-1, 1] to the key deflection k.
func axis(k int8, v float64) int8 {
	return int8(math.Max(-127, math.Min(127, float64(k)+math.Round(v*host.StickMax))))
}

func (g *game) Draw(screen *ebiten.Image) {
	if !g.rt.VI().Snapshot(g.img) {
		return
	}
	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.img.Rect.Dx(), g.img.Rect.Dy()
}

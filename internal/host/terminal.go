package host

import (
	"context"
	"image"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/clktmr/n64loop/console"
	"github.com/clktmr/n64loop/drivers/controller"
)

// Terminals don't report key releases, a direction stays pressed for this
// long after its last key event.
const keyHold = 150 * time.Millisecond

// Terminal presents the framebuffer in a terminal using half block
// characters, two pixel rows per cell.
type Terminal struct {
	screen tcell.Screen
	input  *controller.Latest
	img    *image.RGBA

	pressed map[tcell.Key]time.Time
	runes   map[rune]time.Time
}

func NewTerminal(screen tcell.Screen, input *controller.Latest, res image.Point) *Terminal {
	return &Terminal{
		screen:  screen,
		input:   input,
		img:     image.NewRGBA(image.Rectangle{Max: res}),
		pressed: make(map[tcell.Key]time.Time),
		runes:   make(map[rune]time.Time),
	}
}

// Run presents frames until ctx is done, the frame loop fails or escape is
// pressed.  The screen is initialized and finalized by Run.
func (t *Terminal) Run(ctx context.Context, rt *console.Runtime, fps int) error {
	if err := t.screen.Init(); err != nil {
		return err
	}
	defer t.screen.Fini()
	t.screen.Clear()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go t.screen.ChannelEvents(events, quit)

	loop := Loop(rt)
	tick := time.NewTicker(time.Second / time.Duration(fps))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-loop:
			return err
		case ev := <-events:
			if t.handle(ev) {
				return nil
			}
		case now := <-tick.C:
			t.input.Set(0, t.keys(now).State())
			if rt.VI().Snapshot(t.img) {
				t.draw()
			}
		}
	}
}

// handle reports true if the user asked to quit.
func (t *Terminal) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			t.runes[ev.Rune()] = ev.When()
		default:
			t.pressed[ev.Key()] = ev.When()
		}
	}
	return false
}

func (t *Terminal) keys(now time.Time) Keys {
	held := func(k tcell.Key) bool { return now.Sub(t.pressed[k]) < keyHold }
	typed := func(r rune) bool { return now.Sub(t.runes[r]) < keyHold }
	return Keys{
		Up:    held(tcell.KeyUp),
		Down:  held(tcell.KeyDown),
		Left:  held(tcell.KeyLeft),
		Right: held(tcell.KeyRight),
		A:     typed('x'),
		B:     typed('c'),
		Z:     typed('z'),
		Start: held(tcell.KeyEnter),
	}
}

func (t *Terminal) draw() {
	w, h := t.screen.Size()
	res := t.img.Rect.Size()
	if w <= 0 || h <= 0 {
		return
	}
	for cy := range h {
		for cx := range w {
			x := cx * res.X / w
			top := t.img.RGBAAt(x, (2*cy)*res.Y/(2*h))
			bottom := t.img.RGBAAt(x, (2*cy+1)*res.Y/(2*h))
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			t.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}
	t.screen.Show()
}

package host

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/clktmr/n64loop/console"
	"github.com/clktmr/n64loop/drivers/controller"
	"github.com/clktmr/n64loop/rcp/video"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		keys Keys
		want controller.State
	}{
		{Keys{}, controller.State{Plugged: true}},
		{Keys{Up: true}, controller.State{Y: StickMax, Plugged: true}},
		{Keys{Down: true, Left: true}, controller.State{X: -StickMax, Y: -StickMax, Plugged: true}},
		{Keys{Left: true, Right: true}, controller.State{Plugged: true}},
		{Keys{A: true, Start: true}, controller.State{Down: controller.ButtonA | controller.ButtonStart, Plugged: true}},
	}
	for _, tc := range tests {
		if got := tc.keys.State(); got != tc.want {
			t.Errorf("%+v: got %+v, want %+v", tc.keys, got, tc.want)
		}
	}
}

func newRuntime(t *testing.T) *console.Runtime {
	t.Helper()
	rt, err := console.NewRuntime(console.Config{
		Resolution: video.LowRes.Resolution(),
		Input:      controller.NewScript(),
		Retrace:    time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	rt.Start(stop)
	return rt
}

func TestRunHeadless(t *testing.T) {
	rt := newRuntime(t)
	if err := RunHeadless(context.Background(), rt, 4); err != nil {
		t.Fatal(err)
	}
	if n := rt.Stats().Frames; n != 4 {
		t.Errorf("presented %d frames", n)
	}
}

func TestRunHeadlessCanceled(t *testing.T) {
	rt := newRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunHeadless(ctx, rt, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
	if n := rt.Stats().Frames; n != 0 {
		t.Errorf("presented %d frames", n)
	}
}

func TestTerminalDraw(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	defer s.Fini()
	s.SetSize(4, 2)

	term := NewTerminal(s, &controller.Latest{}, image.Pt(8, 8))
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	draw.Draw(term.img, image.Rect(0, 0, 8, 4), image.NewUniform(red), image.Point{}, draw.Src)
	draw.Draw(term.img, image.Rect(0, 4, 8, 8), image.NewUniform(blue), image.Point{}, draw.Src)
	term.draw()

	cells, w, _ := s.GetContents()
	tests := []struct {
		x, y   int
		fg, bg color.RGBA
	}{
		{0, 0, red, red},
		{3, 0, red, red},
		{0, 1, blue, blue},
	}
	for _, tc := range tests {
		c := cells[tc.y*w+tc.x]
		if len(c.Runes) == 0 || c.Runes[0] != '▀' {
			t.Errorf("%d,%d: runes %q", tc.x, tc.y, c.Runes)
		}
		fg, bg, _ := c.Style.Decompose()
		wantFg := tcell.NewRGBColor(int32(tc.fg.R), int32(tc.fg.G), int32(tc.fg.B))
		wantBg := tcell.NewRGBColor(int32(tc.bg.R), int32(tc.bg.G), int32(tc.bg.B))
		if fg != wantFg || bg != wantBg {
			t.Errorf("%d,%d: colors %v/%v", tc.x, tc.y, fg, bg)
		}
	}
}

func TestTerminalKeys(t *testing.T) {
	term := NewTerminal(nil, &controller.Latest{}, image.Pt(8, 8))
	if term.handle(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)) {
		t.Fatal("arrow key quits")
	}
	term.handle(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	now := time.Now()
	if k := term.keys(now); !k.Up || !k.A || k.Down {
		t.Errorf("keys: %+v", k)
	}
	if k := term.keys(now.Add(2 * keyHold)); k.Up || k.A {
		t.Errorf("keys not released: %+v", k)
	}
	if !term.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("escape doesn't quit")
	}
}

package draw

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/rdp"
	"github.com/clktmr/n64loop/rcp/rsp"
	"github.com/clktmr/n64loop/rcp/rsp/ucode"
	"github.com/clktmr/n64loop/rcp/video"
)

type fixture struct {
	arena   *cpu.Arena
	dl      *rdp.DisplayList
	builder *rsp.Builder
	fb      *video.RGBA16
	rdp     *RDP
}

func newFixture() *fixture {
	f := &fixture{arena: cpu.NewArena(1 << 20)}
	f.dl = rdp.NewDisplayList(f.arena, 64)
	f.builder = rsp.NewBuilder(f.arena, ucode.RSPBoot, ucode.F3DEX2FIFO)
	f.fb = video.NewRGBA16(f.arena, video.LowRes.Resolution())
	f.rdp = NewRDP(f.arena, nil)
	f.rdp.Bind(f.fb)
	return f
}

func (f *fixture) setup() {
	f.dl.SetSegment(0, 0)
	f.dl.SetScissor(f.fb.Bounds(), rdp.InterlaceNone)
	f.dl.SetCycleType(rdp.CycleTypeFill)
	f.dl.SetColorImage(f.fb.Addr(), f.fb.Bounds().Dx(), rdp.RGBA, rdp.BBP16)
}

func (f *fixture) fill(r image.Rectangle, c color.Color) {
	f.dl.SetFillColor(c)
	f.dl.FillRectangle(r)
	f.dl.Sync(rdp.Pipe)
}

func (f *fixture) execute() error {
	var task rsp.Task
	f.builder.Build(&task, f.dl)
	return f.rdp.Execute(&task)
}

func TestExecute(t *testing.T) {
	f := newFixture()
	f.setup()
	green := color.RGBA{0, 64, 0, 255}
	f.fill(f.fb.Bounds(), green)
	f.fill(image.Rect(10, 20, 42, 52), color.White)
	f.dl.Sync(rdp.Full)
	f.dl.End()

	if err := f.execute(); err != nil {
		t.Fatal(err)
	}

	tests := map[image.Point]video.Color16{
		{0, 0}:     video.Pack16(green),
		{319, 239}: video.Pack16(green),
		{10, 20}:   0xffff,
		{41, 51}:   0xffff,
		{42, 51}:   video.Pack16(green),
		{41, 52}:   video.Pack16(green),
	}
	for p, want := range tests {
		if got := f.fb.RGBA16At(p.X, p.Y); got != want {
			t.Errorf("%v: got %04x, want %04x", p, got, want)
		}
	}
	if commands, fills := f.rdp.Stats(); commands != uint64(f.dl.Len()) || fills != 2 {
		t.Errorf("stats: %d commands, %d fills", commands, fills)
	}
}

func TestScissor(t *testing.T) {
	f := newFixture()
	f.dl.SetScissor(image.Rect(0, 0, 100, 100), rdp.InterlaceNone)
	f.dl.SetCycleType(rdp.CycleTypeFill)
	f.dl.SetColorImage(f.fb.Addr(), 320, rdp.RGBA, rdp.BBP16)
	f.fill(f.fb.Bounds(), color.White)
	f.dl.End()
	if err := f.execute(); err != nil {
		t.Fatal(err)
	}
	if f.fb.RGBA16At(99, 99) != 0xffff || f.fb.RGBA16At(100, 99) != 0 {
		t.Error("fill not clipped to scissor")
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := map[string]struct {
		build func(f *fixture)
		err   error
	}{
		"no end": {func(f *fixture) {
			f.setup()
		}, ErrNoEnd},
		"no color image": {func(f *fixture) {
			f.dl.SetCycleType(rdp.CycleTypeFill)
			f.fill(image.Rect(0, 0, 1, 1), color.White)
			f.dl.End()
		}, ErrNoColorImage},
		"unknown framebuffer": {func(f *fixture) {
			f.dl.SetColorImage(f.fb.Addr()+64, 320, rdp.RGBA, rdp.BBP16)
			f.dl.End()
		}, ErrColorImage},
		"wrong width": {func(f *fixture) {
			f.dl.SetColorImage(f.fb.Addr(), 640, rdp.RGBA, rdp.BBP16)
			f.dl.End()
		}, ErrColorImage},
		"cycle type": {func(f *fixture) {
			f.dl.SetColorImage(f.fb.Addr(), 320, rdp.RGBA, rdp.BBP16)
			f.fill(image.Rect(0, 0, 1, 1), color.White)
			f.dl.End()
		}, ErrCycleType},
		"missing pipe sync": {func(f *fixture) {
			f.setup()
			f.dl.SetFillColor(color.White)
			f.dl.FillRectangle(image.Rect(0, 0, 1, 1))
			f.dl.SetFillColor(color.Black)
			f.dl.End()
		}, ErrPipeSync},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			tc.build(f)
			if err := f.execute(); !errors.Is(err, tc.err) {
				t.Errorf("got %v, want %v", err, tc.err)
			}
		})
	}
}

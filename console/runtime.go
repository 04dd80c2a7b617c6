package console

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/docker/go-units"

	"github.com/clktmr/n64loop/debug"
	"github.com/clktmr/n64loop/drivers/audio"
	"github.com/clktmr/n64loop/drivers/controller"
	"github.com/clktmr/n64loop/drivers/display"
	"github.com/clktmr/n64loop/drivers/draw"
	"github.com/clktmr/n64loop/drivers/romfs"
	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/mesg"
	"github.com/clktmr/n64loop/rcp/periph"
	"github.com/clktmr/n64loop/rcp/rdp"
	"github.com/clktmr/n64loop/rcp/rsp"
	"github.com/clktmr/n64loop/rcp/rsp/ucode"
	"github.com/clktmr/n64loop/rcp/sched"
	"github.com/clktmr/n64loop/rcp/video"
)

const (
	ListCapacity = 2048 // commands per frame
	NumGfxMsgs   = 8
	NumPIMsgs    = 16
)

var ErrConfig = errors.New("console: invalid config")

type Config struct {
	Resolution image.Point

	// Asset image, may be nil.  Read through the PI manager in chunks of at
	// most MaxChunk bytes.
	ROM      io.ReaderAt
	ROMSize  int64
	MaxChunk int

	Input controller.Reader
	Audio audio.Engine // defaults to audio.Null

	// Period of the vertical retrace, defaults to NTSC.
	Retrace time.Duration

	Cache cpu.Cache
	Log   *debug.Logger
}

// Runtime owns all long-lived resources of the frame loop.  They are
// allocated once in NewRuntime and reused every frame.
type Runtime struct {
	cfg  Config
	log  *debug.Logger
	game Gamelooper

	arena   *cpu.Arena
	vi      *video.VI
	rdp     *draw.RDP
	sched   *sched.SoftScheduler
	gfxQ    *mesg.Queue[*sched.Msg]
	client  *sched.Client
	display *display.Display
	dl      *rdp.DisplayList
	builder *rsp.Builder
	task    sched.Task
	doneMsg sched.Msg
	screen  Screen
	pad     controller.Controller

	pi     *periph.Manager
	reader *periph.Reader
	image  *romfs.Image

	audioHeap, ptrBuf, tuneBuf []byte
}

func arenaSize(res image.Point) int {
	fbs := 2 * res.X * res.Y * 2
	list := ListCapacity * rdp.CommandSize
	task := rsp.DRAMStackSize + rsp.FIFOSize + rsp.YieldDataSize
	sound := audio.DefaultHeapSize + audio.PtrBufSize + audio.TuneBufSize
	return fbs + list + task + sound + 4*video.Alignment
}

// NewRuntime validates cfg and wires all components.  Configuration errors
// are returned before any goroutine is started.
func NewRuntime(cfg Config, game Gamelooper) (*Runtime, error) {
	preset, err := video.PresetFor(cfg.Resolution)
	if err != nil {
		return nil, err
	}
	if cfg.Input == nil {
		return nil, fmt.Errorf("%w: no input", ErrConfig)
	}
	if cfg.ROM != nil && cfg.ROMSize <= 0 {
		return nil, fmt.Errorf("%w: asset image size %d", ErrConfig, cfg.ROMSize)
	}
	if cfg.MaxChunk < 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrConfig, cfg.MaxChunk)
	}
	if cfg.Audio == nil {
		cfg.Audio = &audio.Null{Log: cfg.Log}
	}
	if cfg.Retrace <= 0 {
		cfg.Retrace = video.RetracePeriod
	}
	if cfg.Cache == nil {
		cfg.Cache = cpu.Coherent
	}
	if game == nil {
		game = NewSquare(cfg.Resolution)
	}

	rt := &Runtime{
		cfg:   cfg,
		log:   cfg.Log.Named("console"),
		game:  game,
		arena: cpu.NewArena(arenaSize(cfg.Resolution)),
	}
	rt.vi = video.NewVI(preset, cfg.Log)
	rt.rdp = draw.NewRDP(rt.arena, cfg.Log)
	rt.sched = sched.NewSoftScheduler(rt.vi, rt.rdp, sched.Options{Log: cfg.Log})

	rt.gfxQ = mesg.NewQueue[*sched.Msg](NumGfxMsgs)
	rt.client = sched.Register(rt.sched, rt.gfxQ)

	rt.display = display.NewDisplay(rt.arena, cfg.Resolution, rt.client)
	for _, fb := range rt.display.Buffers() {
		rt.rdp.Bind(fb)
	}
	rt.dl = rdp.NewDisplayList(rt.arena, ListCapacity)
	rt.builder = rsp.NewBuilder(rt.arena, ucode.RSPBoot, ucode.F3DEX2FIFO)
	rt.screen = Screen{
		painter: rdp.NewPainter(rt.dl, image.Rectangle{Max: cfg.Resolution}),
		size:    cfg.Resolution,
	}

	rt.audioHeap = rt.arena.Alloc(audio.DefaultHeapSize, cpu.CacheLineSize)
	rt.ptrBuf = rt.arena.Alloc(audio.PtrBufSize, cpu.CacheLineSize)
	rt.tuneBuf = rt.arena.Alloc(audio.TuneBufSize, cpu.CacheLineSize)

	if cfg.ROM != nil {
		rt.pi = periph.NewManager(cfg.ROM, NumPIMsgs, cfg.MaxChunk, cfg.Log)
		rt.pi.Start()
		rt.reader = periph.NewReader(rt.pi, cfg.Cache, cfg.ROMSize)
		rt.image, err = romfs.Read(rt.reader)
		if err != nil {
			return nil, fmt.Errorf("asset image: %w", err)
		}
		rt.log.Debugf("asset image %q, %d regions, %s",
			rt.image.Title, len(rt.image.Regions()), units.BytesSize(float64(cfg.ROMSize)))
	}

	rt.log.Infof("%v, arena %s of %s used", preset,
		units.BytesSize(float64(rt.arena.Used())), units.BytesSize(float64(rt.arena.Size())))
	return rt, nil
}

// Start launches the scheduler and the retrace clock until stop is closed.
func (rt *Runtime) Start(stop <-chan struct{}) {
	rt.sched.Start()
	rt.vi.Start(rt.cfg.Retrace, stop)
}

// InitAudio configures the audio engine and starts the song from the asset
// image, if there is one.
func (rt *Runtime) InitAudio() error {
	cfg := audio.DefaultConfig(rt.sched, rt.audioHeap)
	if err := rt.cfg.Audio.Init(&cfg); err != nil {
		return err
	}
	if rt.image == nil {
		rt.log.Warnf("no asset image, audio disabled")
		return nil
	}
	return audio.Load(rt.cfg.Audio, rt.reader, rt.image, rt.ptrBuf, rt.tuneBuf)
}

// Frame runs a single iteration of the frame loop.  It returns after the
// frame was presented and the framebuffers were swapped.
func (rt *Runtime) Frame() error {
	rt.pad.Update(rt.cfg.Input.ReadLatest()[0])
	if err := rt.game.Update(&rt.pad); err != nil {
		return err
	}

	fb := rt.display.Target()
	dl := rt.dl
	dl.Reset()
	dl.SetSegment(0, 0)
	dl.SetScissor(fb.Bounds(), rdp.InterlaceNone)
	dl.SetCycleType(rdp.CycleTypeFill)
	dl.SetColorImage(fb.Addr(), fb.Bounds().Dx(), rdp.RGBA, rdp.BBP16)
	rt.game.Draw(&rt.screen)
	dl.Sync(rdp.Full)
	dl.End()

	rt.task.Build(rt.builder, dl, fb, rt.gfxQ, &rt.doneMsg)
	rt.cfg.Cache.WritebackAll()
	rt.client.Submit(&rt.task)
	rt.client.AwaitCompletion()
	rt.display.Swap()
	return nil
}

// RunFrames runs n iterations of the frame loop.
func (rt *Runtime) RunFrames(n int) error {
	for range n {
		if err := rt.Frame(); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the frame loop until the game's Update returns an error.
func (rt *Runtime) Run() error {
	for {
		if err := rt.Frame(); err != nil {
			return err
		}
	}
}

// PreNMI notifies the scheduler's clients of an imminent reset.
func (rt *Runtime) PreNMI() { rt.sched.PreNMI() }

func (rt *Runtime) VI() *video.VI { return rt.vi }

func (rt *Runtime) Display() *display.Display { return rt.display }

func (rt *Runtime) Game() Gamelooper { return rt.game }

type Stats struct {
	Frames, Retraces       uint64
	Tasks, Commands, Fills uint64
	DroppedMsgs            uint64
	DMARequests, DMABytes  uint64
}

func (rt *Runtime) Stats() (s Stats) {
	s.Frames = rt.display.Frames()
	s.Retraces = rt.vi.Retraces()
	s.Tasks, s.DroppedMsgs = rt.sched.Stats()
	s.Commands, s.Fills = rt.rdp.Stats()
	if rt.pi != nil {
		s.DMARequests, s.DMABytes = rt.pi.Stats()
	}
	return
}

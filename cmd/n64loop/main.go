package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dc0d/onexit"
	"github.com/docker/go-units"
	"github.com/gdamore/tcell/v2"

	"github.com/clktmr/n64loop/console"
	"github.com/clktmr/n64loop/debug"
	"github.com/clktmr/n64loop/drivers/controller"
	"github.com/clktmr/n64loop/internal/host"
	"github.com/clktmr/n64loop/internal/host/window"
	"github.com/clktmr/n64loop/rcp/video"
)

const usageString = `Runs the moving square frame loop on the host.

Usage: %s [flags]

`

var (
	preset  = flag.String("preset", "low", "video mode: low | high | <width>x<height>")
	rom     = flag.String("rom", "", "asset image with the audio banks and song, see mkrom")
	chunk   = flag.String("chunk", "16KiB", "maximum size of a single asset DMA transfer")
	mode    = flag.String("display", "window", "window | term | headless")
	frames  = flag.Uint64("frames", 0, "stop after this many frames, 0 runs until interrupted")
	scale   = flag.Int("scale", 2, "window scale factor")
	level   = flag.String("v", "info", "log level: debug | info | warn | error")
	retrace = flag.Duration("retrace", video.RetracePeriod, "vertical retrace period")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	log.Default().SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
	}

	lvl := must(debug.ParseLevel(*level))
	logger := debug.NewLogger(os.Stderr, lvl)
	p := must(video.ParsePreset(*preset))
	maxChunk := must(units.RAMInBytes(*chunk))

	input := &controller.Latest{}
	input.Set(0, controller.State{Plugged: true})
	cfg := console.Config{
		Resolution: p.Resolution(),
		MaxChunk:   int(maxChunk),
		Input:      input,
		Retrace:    *retrace,
		Log:        logger,
	}
	if *rom != "" {
		f := must(os.Open(*rom))
		defer f.Close()
		fi := must(f.Stat())
		cfg.ROM, cfg.ROMSize = f, fi.Size()
	}

	rt := must(console.NewRuntime(cfg, nil))
	stop := make(chan struct{})
	rt.Start(stop)
	defer close(stop)
	if err := rt.InitAudio(); err != nil {
		log.Fatalln("audio:", err)
	}

	start := time.Now()
	var once sync.Once
	report := func() {
		once.Do(func() {
			s := rt.Stats()
			elapsed := time.Since(start)
			logger.Infof("%d frames in %v (%.1f fps), %d retraces, %d tasks, %d dropped messages",
				s.Frames, elapsed.Round(time.Millisecond), float64(s.Frames)/elapsed.Seconds(),
				s.Retraces, s.Tasks, s.DroppedMsgs)
			logger.Infof("%d commands, %d fills, %d asset transfers (%s)",
				s.Commands, s.Fills, s.DMARequests, units.BytesSize(float64(s.DMABytes)))
		})
	}
	onexit.Register(report)
	defer report()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch *mode {
	case "window":
		err = window.Run(rt, input, "n64loop "+p.String(), *scale)
	case "term":
		screen := must(tcell.NewScreen())
		err = host.NewTerminal(screen, input, p.Resolution()).Run(ctx, rt, 30)
	case "headless":
		err = host.RunHeadless(ctx, rt, *frames)
	default:
		err = fmt.Errorf("unknown display %q", *mode)
	}
	if err == context.Canceled {
		err = nil
	}
	rt.PreNMI()
	if err != nil {
		report()
		log.Fatalln(err)
	}
}

func must[T any](ret T, err error) T {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return ret
}

// Package audio defines the boundary to the sequenced music engine.  The
// engine itself is external, this package provides its configuration, a null
// engine and the loading of sample banks and songs from the asset image.
package audio

import (
	"errors"
	"fmt"

	"github.com/docker/go-units"

	"github.com/clktmr/n64loop/debug"
	"github.com/clktmr/n64loop/drivers/romfs"
	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/sched"
)

// Defaults for the synthesizer, matching the values commonly used with the
// engine.
const (
	DefaultChannels    = 24
	DefaultHeapSize    = 0x60000
	DefaultFIFOLength  = 64
	DefaultOutputRate  = 44100
	DefaultUpdates     = 256
	DefaultRSPCmds     = 2048
	DefaultNumDMABufs  = 64
	DefaultDMABufSize  = 1024
	DefaultRetraces    = 1
	DefaultPriority    = 70
	MaxChannels        = 32
	PtrBufSize         = 8192
	TuneBufSize        = 16384
	ControlROMWaveBank = 0
)

// Region names in the asset image.
const (
	RegionPtrBank  = "pbank"
	RegionWaveBank = "wbank"
	RegionSong     = "song"
)

var ErrConfig = errors.New("audio: invalid config")

type Config struct {
	ControlFlag    uint32
	Channels       int
	Sched          sched.Scheduler
	ThreadPriority int

	Heap       []byte
	FIFOLength int

	// Initial banks, may be empty.
	Ptr           []byte
	Wbk           cpu.Addr
	DefaultFXBank []byte

	SynOutputRate   int
	SynUpdates      int
	SynRSPCmds      int
	SynNumDMABufs   int
	SynDMABufSize   int
	SynRetraceCount int // must match the scheduler's retrace count
}

// DefaultConfig returns the default configuration using wave banks in ROM.
func DefaultConfig(s sched.Scheduler, heap []byte) Config {
	return Config{
		ControlFlag:     ControlROMWaveBank,
		Channels:        DefaultChannels,
		Sched:           s,
		ThreadPriority:  DefaultPriority,
		Heap:            heap,
		FIFOLength:      DefaultFIFOLength,
		SynOutputRate:   DefaultOutputRate,
		SynUpdates:      DefaultUpdates,
		SynRSPCmds:      DefaultRSPCmds,
		SynNumDMABufs:   DefaultNumDMABufs,
		SynDMABufSize:   DefaultDMABufSize,
		SynRetraceCount: DefaultRetraces,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Channels < 1 || c.Channels > MaxChannels:
		return fmt.Errorf("%w: %d channels", ErrConfig, c.Channels)
	case len(c.Heap) == 0:
		return fmt.Errorf("%w: empty heap", ErrConfig)
	case c.SynOutputRate <= 0:
		return fmt.Errorf("%w: output rate %d", ErrConfig, c.SynOutputRate)
	case c.SynRetraceCount < 1:
		return fmt.Errorf("%w: retrace count %d", ErrConfig, c.SynRetraceCount)
	}
	return nil
}

// Engine is the music engine.
type Engine interface {
	Init(cfg *Config) error
	PtrBankInit(ptr []byte, wbank cpu.Addr)
	StartSong(song []byte)
}

// RegionReader copies size bytes at devAddr from the cartridge into dst.
type RegionReader interface {
	ReadRegion(devAddr cpu.Addr, dst []byte, size int)
}

// Load reads the pointer bank and the song from img and starts playback.  The
// wave bank stays in ROM and is referenced by its address.
func Load(e Engine, r RegionReader, img *romfs.Image, ptrBuf, tuneBuf []byte) error {
	pbank, err := img.Region(RegionPtrBank)
	if err != nil {
		return err
	}
	wbank, err := img.Region(RegionWaveBank)
	if err != nil {
		return err
	}
	song, err := img.Region(RegionSong)
	if err != nil {
		return err
	}
	if pbank.Size() > int64(len(ptrBuf)) || song.Size() > int64(len(tuneBuf)) {
		return fmt.Errorf("audio: bank %s or song %s exceed buffers",
			units.BytesSize(float64(pbank.Size())), units.BytesSize(float64(song.Size())))
	}

	r.ReadRegion(cpu.Addr(pbank.Start), ptrBuf, int(pbank.Size()))
	e.PtrBankInit(ptrBuf[:pbank.Size()], cpu.Addr(wbank.Start))

	r.ReadRegion(cpu.Addr(song.Start), tuneBuf, int(song.Size()))
	e.StartSong(tuneBuf[:song.Size()])
	return nil
}

// Null is an engine that produces no sound.  It keeps what it was given.
type Null struct {
	Log *debug.Logger

	Config *Config
	Ptr    []byte
	Wbk    cpu.Addr
	Song   []byte
}

func (n *Null) Init(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	n.Config = cfg
	n.Log.Named("audio").Infof("%d channels at %d Hz, heap %s",
		cfg.Channels, cfg.SynOutputRate, units.BytesSize(float64(len(cfg.Heap))))
	return nil
}

func (n *Null) PtrBankInit(ptr []byte, wbank cpu.Addr) {
	n.Ptr, n.Wbk = ptr, wbank
}

func (n *Null) StartSong(song []byte) {
	n.Song = song
	n.Log.Named("audio").Debugf("song started, %s", units.BytesSize(float64(len(song))))
}

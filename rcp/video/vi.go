package video

import (
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clktmr/n64loop/debug"
)

// VI is the video interface.  It scans out one framebuffer per vertical
// retrace.  A new framebuffer set with SetFramebuffer is latched at the next
// retrace, never in the middle of a field.
type VI struct {
	preset Preset

	mu      sync.Mutex
	pending *RGBA16
	current *RGBA16

	handlers []func(latched *RGBA16)
	retraces atomic.Uint64

	startOnce sync.Once
	log       *debug.Logger
}

// NewVI returns a video interface running the preset.
func NewVI(preset Preset, log *debug.Logger) *VI {
	return &VI{preset: preset, log: log.Named("vi")}
}

func (v *VI) Preset() Preset { return v.preset }

// SetFramebuffer schedules fb for scan-out beginning with the next retrace.
func (v *VI) SetFramebuffer(fb *RGBA16) {
	debug.Assert(fb == nil || fb.Rect.Size() == v.preset.Resolution(),
		"framebuffer size mismatch")
	v.mu.Lock()
	v.pending = fb
	v.mu.Unlock()
}

// Framebuffer returns the framebuffer currently being scanned out.
func (v *VI) Framebuffer() *RGBA16 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Snapshot copies the framebuffer currently being scanned out to dst.  It
// reports false if no framebuffer was latched yet.
func (v *VI) Snapshot(dst *image.RGBA) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return false
	}
	v.current.ToRGBA(dst)
	return true
}

// OnRetrace registers a handler called on every vertical retrace with the
// framebuffer latched by that retrace, nil if none was latched yet.  Handlers
// run on the retrace goroutine and must not block.  Must be called before
// Start.
func (v *VI) OnRetrace(handler func(latched *RGBA16)) {
	v.handlers = append(v.handlers, handler)
}

// Retrace performs one vertical retrace.  It is called by the ticker started
// with Start, or manually by tests and headless hosts.
func (v *VI) Retrace() {
	v.mu.Lock()
	if v.pending != nil {
		v.current, v.pending = v.pending, nil
	}
	latched := v.current
	v.mu.Unlock()
	v.retraces.Add(1)
	for _, h := range v.handlers {
		h(latched)
	}
}

// Retraces returns the number of retraces since startup.
func (v *VI) Retraces() uint64 { return v.retraces.Load() }

// Start generates retraces with the given period until stop is closed.
func (v *VI) Start(period time.Duration, stop <-chan struct{}) {
	v.startOnce.Do(func() {
		v.log.Debugf("retrace every %v, %v", period, v.preset)
		go func() {
			t := time.NewTicker(period)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					v.Retrace()
				case <-stop:
					return
				}
			}
		}()
	})
}

// Package host contains the adapters that run the frame loop on a
// workstation: they present the scanned out framebuffer and feed keyboard
// input to the first controller port.
package host

import (
	"context"

	"github.com/clktmr/n64loop/console"
	"github.com/clktmr/n64loop/drivers/controller"
)

// StickMax is the stick deflection reported for a pressed direction key.
const StickMax = 80

// Keys is the state of the keys mapped to controller inputs.
type Keys struct {
	Up, Down, Left, Right bool
	A, B, Z, Start        bool
}

// State converts the keys into a controller state.  Opposite directions
// cancel each other.
func (k Keys) State() controller.State {
	s := controller.State{Plugged: true}
	if k.Left {
		s.X -= StickMax
	}
	if k.Right {
		s.X += StickMax
	}
	if k.Up {
		s.Y += StickMax
	}
	if k.Down {
		s.Y -= StickMax
	}
	buttons := [...]struct {
		pressed bool
		mask    controller.ButtonMask
	}{
		{k.A, controller.ButtonA},
		{k.B, controller.ButtonB},
		{k.Z, controller.ButtonZ},
		{k.Start, controller.ButtonStart},
	}
	for _, b := range buttons {
		if b.pressed {
			s.Down |= b.mask
		}
	}
	return s
}

// Loop runs the frame loop on its own goroutine.  The returned channel
// receives the loop's error.
func Loop(rt *console.Runtime) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- rt.Run() }()
	return errc
}

// RunHeadless runs frames until ctx is done or, if frames is not zero, the
// given number of frames was presented.
func RunHeadless(ctx context.Context, rt *console.Runtime, frames uint64) error {
	for n := uint64(0); frames == 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := rt.Frame(); err != nil {
			return err
		}
	}
	return nil
}

// Package controller provides the state of the four controller ports.  The
// hardware polling is done by a Reader, which is implemented by the host
// adapters.
package controller

import "sync"

// Ports is the number of controller ports.
const Ports = 4

// State is the result of polling a single port.
type State struct {
	Down    ButtonMask
	X, Y    int8
	Plugged bool
}

// Reader returns the most recent state of all ports.  Implementations may
// block until a poll completed.
type Reader interface {
	ReadLatest() [Ports]State
}

// Deadzone returns v, or zero if |v| <= deadzone.
func Deadzone(v, deadzone int8) int8 {
	if int(v) > int(deadzone) || int(v) < -int(deadzone) {
		return v
	}
	return 0
}

// Controller tracks state changes between two polls of a port.
type Controller struct {
	current, last State
}

// Update stores the result of a new poll.
func (c *Controller) Update(s State) {
	c.last = c.current
	c.current = s
}

func (c *Controller) Down() ButtonMask { return c.current.Down }

func (c *Controller) Changed() ButtonMask {
	return c.current.Down ^ c.last.Down
}

func (c *Controller) Pressed() ButtonMask {
	return c.Changed() & c.current.Down
}

func (c *Controller) Released() ButtonMask {
	return c.Changed() & c.last.Down
}

func (c *Controller) X() int8 { return c.current.X }

func (c *Controller) Y() int8 { return c.current.Y }

func (c *Controller) DX() int8 { return c.current.X - c.last.X }

func (c *Controller) DY() int8 { return c.current.Y - c.last.Y }

func (c *Controller) Plugged() bool {
	return c.current.Plugged && !c.last.Plugged
}

func (c *Controller) Unplugged() bool {
	return !c.current.Plugged && c.last.Plugged
}

// Latest is a Reader holding the last state written by an input source, e.g.
// a host window's event handler.
type Latest struct {
	mu     sync.Mutex
	states [Ports]State
}

// Set stores the state of a port.
func (l *Latest) Set(port int, s State) {
	l.mu.Lock()
	l.states[port] = s
	l.mu.Unlock()
}

func (l *Latest) ReadLatest() [Ports]State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states
}

// Script is a Reader replaying a fixed sequence of port 1 states, one per
// read.  After the sequence is exhausted the last state is repeated.
type Script struct {
	mu    sync.Mutex
	steps []State
	reads int
}

func NewScript(steps ...State) *Script {
	return &Script{steps: steps}
}

func (s *Script) ReadLatest() (states [Ports]State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return
	}
	i := min(s.reads, len(s.steps)-1)
	s.reads++
	states[0] = s.steps[i]
	return
}

// Reads returns the number of reads so far.
func (s *Script) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

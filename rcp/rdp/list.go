package rdp

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/clktmr/n64loop/rcp/cpu"
)

var (
	ErrListFull   = errors.New("display list full")
	ErrListLocked = errors.New("display list referenced by outstanding task")
)

// DisplayList is a fixed capacity, append-only sequence of commands in RDRAM.
// It's built by the CPU every frame and read by the coprocessor once
// referenced by a submitted task.  While locked, any attempt to modify the
// list panics.
type DisplayList struct {
	buf    []byte
	addr   cpu.Addr
	cur    int
	locked atomic.Bool

	bbp BitDepth
}

// NewDisplayList allocates a display list for capacity commands from the
// arena.
func NewDisplayList(a *cpu.Arena, capacity int) *DisplayList {
	buf := a.Alloc(capacity*CommandSize, CommandSize)
	return &DisplayList{buf: buf, addr: a.Addr(buf), bbp: BBP16}
}

// Reset rewinds the list to its base.
func (dl *DisplayList) Reset() {
	dl.checkUnlocked()
	dl.cur = 0
}

// Len returns the number of commands in the list.
func (dl *DisplayList) Len() int { return dl.cur / CommandSize }

// Cap returns the maximum number of commands.
func (dl *DisplayList) Cap() int { return len(dl.buf) / CommandSize }

// Size returns the size of the list's commands in bytes.
func (dl *DisplayList) Size() int { return dl.cur }

// Addr returns the list's base address in RDRAM.
func (dl *DisplayList) Addr() cpu.Addr { return dl.addr }

// Bytes returns the encoded commands.
func (dl *DisplayList) Bytes() []byte { return dl.buf[:dl.cur] }

// Command returns the i-th command.
func (dl *DisplayList) Command(i int) Command {
	return ReadCommand(dl.buf[i*CommandSize:])
}

// Lock marks the list as referenced by an outstanding task.
func (dl *DisplayList) Lock() { dl.locked.Store(true) }

// Unlock releases the list after the task completed.
func (dl *DisplayList) Unlock() { dl.locked.Store(false) }

// Locked reports whether the list is referenced by an outstanding task.
func (dl *DisplayList) Locked() bool { return dl.locked.Load() }

func (dl *DisplayList) checkUnlocked() {
	if dl.locked.Load() {
		panic(ErrListLocked)
	}
}

func (dl *DisplayList) push(c Command) {
	dl.checkUnlocked()
	if dl.cur+CommandSize > len(dl.buf) {
		panic(fmt.Errorf("%w: capacity %d", ErrListFull, dl.Cap()))
	}
	c.put(dl.buf[dl.cur:])
	dl.cur += CommandSize
}

// Package sched implements the coprocessor scheduler.  Clients submit tasks to
// the scheduler's command queue and are notified on their own queue when a
// task is done.  Additionally every client receives a message on each vertical
// retrace.
package sched

import (
	"github.com/clktmr/n64loop/rcp/mesg"
	"github.com/clktmr/n64loop/rcp/rdp"
	"github.com/clktmr/n64loop/rcp/rsp"
	"github.com/clktmr/n64loop/rcp/video"
)

type MsgType int

const (
	MsgRetrace MsgType = iota + 1
	MsgDone
	MsgPreNMI
)

func (t MsgType) String() string {
	switch t {
	case MsgRetrace:
		return "retrace"
	case MsgDone:
		return "done"
	case MsgPreNMI:
		return "prenmi"
	}
	return "unknown"
}

// Msg is sent to client queues.  Task is set for MsgDone.
type Msg struct {
	Type MsgType
	Task *Task
}

type Flags uint32

const (
	NeedsRSP   Flags = 0x01
	NeedsRDP   Flags = 0x02
	LastTask   Flags = 0x20
	SwapBuffer Flags = 0x40
)

// Task wraps the signal processor task with scheduling information.
type Task struct {
	RSP   rsp.Task
	Flags Flags

	// Framebuffer is handed to the video interface after the task
	// finished, if SwapBuffer is set.
	Framebuffer *video.RGBA16

	// List is the display list referenced by RSP.DataPtr.  It stays locked
	// while the task is outstanding.
	List *rdp.DisplayList

	// Msg is sent to MsgQ when the task is done.
	MsgQ *mesg.Queue[*Msg]
	Msg  *Msg
}

// Build fills t in place for rendering dl into fb as the only task of the
// frame.
func (t *Task) Build(b *rsp.Builder, dl *rdp.DisplayList, fb *video.RGBA16, q *mesg.Queue[*Msg], msg *Msg) {
	b.Build(&t.RSP, dl)
	t.Flags = NeedsRSP | NeedsRDP | LastTask | SwapBuffer
	t.Framebuffer = fb
	t.List = dl
	t.MsgQ = q
	t.Msg = msg
	msg.Type = MsgDone
	msg.Task = t
}

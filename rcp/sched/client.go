package sched

import (
	"errors"
	"sync/atomic"

	"github.com/clktmr/n64loop/rcp/mesg"
)

var (
	ErrOutstanding = errors.New("sched: task already outstanding")
	ErrUnreleased  = errors.New("sched: completed task not released")
)

// Scheduler accepts tasks on its command queue and notifies registered client
// queues.
type Scheduler interface {
	AddClient(q *mesg.Queue[*Msg])
	CmdQueue() *mesg.Queue[*Task]
}

type State int32

const (
	Idle State = iota
	Submitted
	Done
)

// Client submits tasks to a scheduler and waits for them, one at a time.
type Client struct {
	sched Scheduler
	q     *mesg.Queue[*Msg]
	state atomic.Int32
	task  *Task
}

// Register adds q to the scheduler's clients.  q receives retrace and done
// messages from now on.
func Register(s Scheduler, q *mesg.Queue[*Msg]) *Client {
	s.AddClient(q)
	return &Client{sched: s, q: q}
}

// Queue returns the client's message queue.
func (c *Client) Queue() *mesg.Queue[*Msg] { return c.q }

func (c *Client) State() State { return State(c.state.Load()) }

// Outstanding reports whether a submitted task has not completed yet.
func (c *Client) Outstanding() bool { return c.State() == Submitted }

// Submit sends t to the scheduler.  It blocks while the command queue is full.
// Submitting while another task is outstanding, or before the completed one
// was released, panics.
func (c *Client) Submit(t *Task) {
	if !c.state.CompareAndSwap(int32(Idle), int32(Submitted)) {
		if c.State() == Done {
			panic(ErrUnreleased)
		}
		panic(ErrOutstanding)
	}
	if t.List != nil {
		t.List.Lock()
	}
	c.task = t
	c.sched.CmdQueue().Send(t)
}

// AwaitCompletion blocks until the done message of the outstanding task
// arrives.  Messages of other types are discarded.
func (c *Client) AwaitCompletion() *Msg {
	for {
		msg := c.q.Recv()
		if msg.Type != MsgDone {
			continue
		}
		if c.task != nil && c.task.List != nil {
			c.task.List.Unlock()
		}
		c.task = nil
		c.state.Store(int32(Done))
		return msg
	}
}

// Release returns a completed client to Idle once the resources of its task
// were reclaimed.  It has no effect on an idle client and panics while a task
// is outstanding.
func (c *Client) Release() {
	if c.state.CompareAndSwap(int32(Done), int32(Idle)) {
		return
	}
	if c.Outstanding() {
		panic(ErrOutstanding)
	}
}

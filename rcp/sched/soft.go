package sched

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/clktmr/n64loop/debug"
	"github.com/clktmr/n64loop/rcp/mesg"
	"github.com/clktmr/n64loop/rcp/rsp"
	"github.com/clktmr/n64loop/rcp/video"
)

// Executor runs a task on the coprocessors and returns when it's finished.
type Executor interface {
	Execute(t *rsp.Task) error
}

// DefaultCmdQueueLen is the command queue capacity used if none is given.
const DefaultCmdQueueLen = 8

type Options struct {
	CmdQueueLen int
	Log         *debug.Logger
}

// SoftScheduler runs tasks on a software executor.  Tasks are executed in
// submission order on the scheduler goroutine.  A finished task with the
// SwapBuffer flag hands its framebuffer to the video interface and its done
// message is delayed until the retrace that latched the framebuffer.
type SoftScheduler struct {
	vi   *video.VI
	exec Executor
	log  *debug.Logger

	cmdQ *mesg.Queue[*Task]

	mu      sync.Mutex
	clients []*mesg.Queue[*Msg]
	pending []*Task

	retraceMsg Msg
	preNMIMsg  Msg

	tasks   atomic.Uint64
	dropped atomic.Uint64
	start   sync.Once
}

func NewSoftScheduler(vi *video.VI, exec Executor, opts Options) *SoftScheduler {
	if opts.CmdQueueLen <= 0 {
		opts.CmdQueueLen = DefaultCmdQueueLen
	}
	s := &SoftScheduler{
		vi:         vi,
		exec:       exec,
		log:        opts.Log.Named("sched"),
		cmdQ:       mesg.NewQueue[*Task](opts.CmdQueueLen),
		pending:    make([]*Task, 0, opts.CmdQueueLen),
		retraceMsg: Msg{Type: MsgRetrace},
		preNMIMsg:  Msg{Type: MsgPreNMI},
	}
	vi.OnRetrace(s.retrace)
	return s
}

func (s *SoftScheduler) AddClient(q *mesg.Queue[*Msg]) {
	s.mu.Lock()
	s.clients = append(s.clients, q)
	s.mu.Unlock()
}

func (s *SoftScheduler) CmdQueue() *mesg.Queue[*Task] { return s.cmdQ }

// Start launches the scheduler goroutine.  Calling it more than once has no
// effect.
func (s *SoftScheduler) Start() {
	s.start.Do(func() {
		s.log.Debugf("scheduler started, %d clients", len(s.clients))
		go s.run()
	})
}

// Stats returns the number of executed tasks and the number of retrace
// messages dropped because a client queue was full.
func (s *SoftScheduler) Stats() (tasks, dropped uint64) {
	return s.tasks.Load(), s.dropped.Load()
}

// PreNMI notifies all clients of an imminent reset.
func (s *SoftScheduler) PreNMI() {
	s.broadcast(&s.preNMIMsg)
}

func (s *SoftScheduler) run() {
	for {
		t := s.cmdQ.Recv()
		if err := s.exec.Execute(&t.RSP); err != nil {
			panic(fmt.Errorf("sched: task failed: %w", err))
		}
		s.tasks.Add(1)

		if t.Flags&SwapBuffer != 0 {
			s.mu.Lock()
			s.vi.SetFramebuffer(t.Framebuffer)
			s.pending = append(s.pending, t)
			s.mu.Unlock()
			continue
		}
		t.MsgQ.Send(t.Msg)
	}
}

// retrace runs on the video interface's goroutine.  Only tasks whose
// framebuffer was latched by this retrace complete, a task that finished
// after the latch waits for the next one.
func (s *SoftScheduler) retrace(latched *video.RGBA16) {
	s.mu.Lock()
	kept := s.pending[:0]
	for _, t := range s.pending {
		if latched != nil && t.Framebuffer == latched {
			t.MsgQ.Send(t.Msg)
			continue
		}
		kept = append(kept, t)
	}
	clear(s.pending[len(kept):])
	s.pending = kept
	s.mu.Unlock()

	s.broadcast(&s.retraceMsg)
}

func (s *SoftScheduler) broadcast(msg *Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.clients {
		if !q.TrySend(msg) {
			s.dropped.Add(1)
		}
	}
}

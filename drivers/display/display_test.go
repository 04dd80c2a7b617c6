package display

import (
	"errors"
	"testing"

	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/mesg"
	"github.com/clktmr/n64loop/rcp/sched"
	"github.com/clktmr/n64loop/rcp/video"
)

type flag bool

func (f *flag) Outstanding() bool { return bool(*f) }
func (f *flag) Release()          {}

func TestAlternation(t *testing.T) {
	arena := cpu.NewArena(1 << 20)
	var outstanding flag
	d := NewDisplay(arena, video.LowRes.Resolution(), &outstanding)
	bufs := d.Buffers()
	if bufs[0] == bufs[1] {
		t.Fatal("buffers not distinct")
	}
	if d.Target() != bufs[1] {
		t.Fatal("first target must be buffers[1]")
	}

	for n := 1; n <= 7; n++ {
		target := d.Target()
		d.Swap()
		if d.Front() != bufs[n%2] {
			t.Fatalf("after %d swaps front is not buffers[%d]", n, n%2)
		}
		if d.Front() != target {
			t.Fatalf("swap %d: last target did not become front", n)
		}
		if d.Target() == d.Front() {
			t.Fatal("target equals front")
		}
	}
	if d.Frames() != 7 {
		t.Errorf("got %d frames", d.Frames())
	}
}

func TestSwapOutstanding(t *testing.T) {
	arena := cpu.NewArena(1 << 20)
	outstanding := flag(true)
	d := NewDisplay(arena, video.LowRes.Resolution(), &outstanding)
	target := d.Target()

	func() {
		defer func() {
			err, _ := recover().(error)
			if !errors.Is(err, ErrSwapOutstanding) {
				t.Fatalf("expected ErrSwapOutstanding, got %v", err)
			}
		}()
		d.Swap()
	}()
	if d.Target() != target || d.Frames() != 0 {
		t.Error("roles changed while outstanding")
	}
}

// doneImmediately completes every task as soon as it's received.
type doneImmediately struct {
	cmdQ *mesg.Queue[*sched.Task]
}

func (s *doneImmediately) AddClient(q *mesg.Queue[*sched.Msg]) {}

func (s *doneImmediately) CmdQueue() *mesg.Queue[*sched.Task] { return s.cmdQ }

func TestSwapAfterCompletion(t *testing.T) {
	s := &doneImmediately{cmdQ: mesg.NewQueue[*sched.Task](1)}
	go func() {
		for {
			task := s.cmdQ.Recv()
			task.MsgQ.Send(task.Msg)
		}
	}()
	q := mesg.NewQueue[*sched.Msg](8)
	client := sched.Register(s, q)

	arena := cpu.NewArena(1 << 20)
	d := NewDisplay(arena, video.LowRes.Resolution(), client)

	done := &sched.Msg{Type: sched.MsgDone}
	task := &sched.Task{Framebuffer: d.Target(), MsgQ: q, Msg: done}
	client.Submit(task)
	if msg := client.AwaitCompletion(); msg != done {
		t.Fatalf("await returned %v", msg)
	}
	if q.Len() != 0 {
		t.Fatal("await needed more than one receive")
	}
	if client.State() != sched.Done {
		t.Fatalf("state %v after completion", client.State())
	}
	d.Swap()
	if d.Front() != task.Framebuffer {
		t.Error("rendered buffer is not front")
	}
	if client.State() != sched.Idle {
		t.Errorf("state %v after swap", client.State())
	}
	client.Submit(task)
	client.AwaitCompletion()
}

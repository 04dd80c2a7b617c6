package mesg_test

import (
	"sync"
	"testing"
	"time"

	"github.com/clktmr/n64loop/rcp/mesg"
)

func TestFIFO(t *testing.T) {
	q := mesg.NewQueue[int](4)
	for i := range 4 {
		q.Send(i)
	}
	if q.TrySend(4) {
		t.Fatal("TrySend on full queue succeeded")
	}
	for i := range 4 {
		if got := q.Recv(); got != i {
			t.Fatalf("Recv() = %d, want %d", got, i)
		}
	}
	if _, ok := q.TryRecv(); ok {
		t.Fatal("TryRecv on empty queue succeeded")
	}
}

func TestRecvFunc(t *testing.T) {
	q := mesg.NewQueue[string](8)
	for _, s := range []string{"retrace", "retrace", "done", "retrace"} {
		q.Send(s)
	}

	got := q.RecvFunc(func(s string) bool { return s == "done" })
	if got != "done" {
		t.Fatalf("RecvFunc() = %q", got)
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	// Skipped messages keep their order and ring wrap-around works.
	q.Send("a")
	q.Send("b")
	want := []string{"retrace", "retrace", "retrace", "a", "b"}
	for _, w := range want {
		if got := q.Recv(); got != w {
			t.Fatalf("Recv() = %q, want %q", got, w)
		}
	}
}

func TestRecvFuncBlocks(t *testing.T) {
	q := mesg.NewQueue[int](2)
	result := make(chan int)
	go func() {
		result <- q.RecvFunc(func(v int) bool { return v > 10 })
	}()

	q.Send(1)
	select {
	case v := <-result:
		t.Fatalf("RecvFunc returned early with %d", v)
	case <-time.After(10 * time.Millisecond):
	}

	q.Send(42)
	if v := <-result; v != 42 {
		t.Fatalf("RecvFunc() = %d, want 42", v)
	}
	if v := q.Recv(); v != 1 {
		t.Fatalf("Recv() = %d, want 1", v)
	}
}

func TestSendBlocksWhenFull(t *testing.T) {
	q := mesg.NewQueue[int](1)
	q.Send(1)

	sent := make(chan struct{})
	go func() {
		q.Send(2)
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("Send on full queue didn't block")
	case <-time.After(10 * time.Millisecond):
	}

	if v := q.Recv(); v != 1 {
		t.Fatalf("Recv() = %d, want 1", v)
	}
	<-sent
	if v := q.Recv(); v != 2 {
		t.Fatalf("Recv() = %d, want 2", v)
	}
}

func TestConcurrentSenders(t *testing.T) {
	const (
		senders = 4
		perSend = 1000
		total   = senders * perSend
	)

	q := mesg.NewQueue[int](8)
	var wg sync.WaitGroup
	wg.Add(senders)
	for s := range senders {
		go func() {
			defer wg.Done()
			for i := range perSend {
				q.Send(s*perSend + i)
			}
		}()
	}

	seen := make([]bool, total)
	last := make([]int, senders)
	for i := range last {
		last[i] = -1
	}
	for range total {
		v := q.Recv()
		if seen[v] {
			t.Fatalf("duplicate message %d", v)
		}
		seen[v] = true

		// Messages of a single sender arrive in order.
		s := v / perSend
		if v <= last[s] {
			t.Fatalf("message %d after %d from sender %d", v, last[s], s)
		}
		last[s] = v
	}
	wg.Wait()
}

// Package mesg implements the bounded message queues used for every
// asynchronous completion signal between the CPU, the PI manager and the
// coprocessor scheduler.
//
// A Queue behaves like a libultra OSMesgQueue: messages are delivered in FIFO
// order, Send blocks while the queue is full and Recv blocks while it's empty.
// Blocked goroutines are parked, they don't spin.
package mesg

import "sync"

// Queue is a fixed capacity FIFO of messages. It's safe for use by multiple
// senders. Each message is consumed by exactly one receiver.
type Queue[T any] struct {
	mtx      sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond

	ring     []T
	start, n int
}

// NewQueue returns an empty queue that holds up to capacity messages.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		panic("mesg: queue capacity must be positive")
	}
	q := &Queue[T]{ring: make([]T, capacity)}
	q.notEmpty.L = &q.mtx
	q.notFull.L = &q.mtx
	return q
}

// Cap returns the capacity of the queue.
func (q *Queue[T]) Cap() int { return len(q.ring) }

// Len returns the number of currently queued messages.
func (q *Queue[T]) Len() int {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return q.n
}

// Send enqueues msg, blocking until a slot is free.
func (q *Queue[T]) Send(msg T) {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	for q.n == len(q.ring) {
		q.notFull.Wait()
	}
	q.push(msg)
}

// TrySend enqueues msg if a slot is free and reports whether it did.
func (q *Queue[T]) TrySend(msg T) bool {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if q.n == len(q.ring) {
		return false
	}
	q.push(msg)
	return true
}

// Recv dequeues the oldest message, blocking until one is available.
func (q *Queue[T]) Recv() T {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	for q.n == 0 {
		q.notEmpty.Wait()
	}
	return q.remove(0)
}

// TryRecv dequeues the oldest message if there is one.
func (q *Queue[T]) TryRecv() (msg T, ok bool) {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if q.n == 0 {
		return msg, false
	}
	return q.remove(0), true
}

// RecvFunc dequeues the oldest message for which match returns true, blocking
// until there is one. Messages that don't match stay queued in their order.
// match is called with the queue locked and must not use the queue.
func (q *Queue[T]) RecvFunc(match func(T) bool) T {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	for {
		for i := 0; i < q.n; i++ {
			if match(q.ring[(q.start+i)%len(q.ring)]) {
				return q.remove(i)
			}
		}
		q.notEmpty.Wait()
	}
}

func (q *Queue[T]) push(msg T) {
	q.ring[(q.start+q.n)%len(q.ring)] = msg
	q.n++
	// Filtered receivers wait for different messages, wake them all.
	q.notEmpty.Broadcast()
}

// remove takes the i-th queued message out of the ring. Newer messages move
// up one slot, so ordering is kept.
func (q *Queue[T]) remove(i int) (msg T) {
	// Write zero values in unused slots to avoid holding hidden references
	// that might prevent freeing memory.
	var zero T

	size := len(q.ring)
	msg = q.ring[(q.start+i)%size]
	if i == 0 {
		q.ring[q.start] = zero
		q.start = (q.start + 1) % size
	} else {
		for j := i; j < q.n-1; j++ {
			q.ring[(q.start+j)%size] = q.ring[(q.start+j+1)%size]
		}
		q.ring[(q.start+q.n-1)%size] = zero
	}
	q.n--
	q.notFull.Signal()
	return
}

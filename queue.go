package semaphore

import (
	"container/heap"
)

// waiter is for handing a permit to a blocked goroutine
type waiter struct {
	seq     uint64
	index   int
	granted bool
	ready   chan struct{}
}

func newWaiter(seq uint64) *waiter {
	return &waiter{
		seq:   seq,
		index: -1,
		ready: make(chan struct{}),
	}
}

// Signal hands the waiter a permit. Must be called with the semaphore's lock held.
func (w *waiter) Signal() {
	w.granted = true
	close(w.ready)
}

type queue []*waiter

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	// Oldest waiter first.
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x interface{}) {
	n := len(*q)
	item := x.(*waiter)
	item.index = n
	*q = append(*q, item)
}

func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1 // for safety
	*q = old[0 : n-1]
	return item
}

type waitQueue queue

func (wq *waitQueue) Len() int {
	return len(*wq)
}

func (wq *waitQueue) Empty() bool {
	return len(*wq) <= 0
}

func (wq *waitQueue) Push(w *waiter) {
	heap.Push((*queue)(wq), w)
}

// Pop returns the next waiter to be served, or nil if nobody is waiting.
func (wq *waitQueue) Pop() *waiter {
	if wq.Empty() {
		return nil
	}
	return heap.Pop((*queue)(wq)).(*waiter)
}

// Remove drops a waiter that gave up. Waiters no longer queued are ignored.
func (wq *waitQueue) Remove(w *waiter) {
	if w.index < 0 || w.index >= wq.Len() || (*wq)[w.index] != w {
		return
	}
	heap.Remove((*queue)(wq), w.index)
}

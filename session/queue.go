// File: session/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A blocking, bounded-in-spirit FIFO used wherever a collaborator needs to
// hand items to a consumer that may be asleep. The producer core itself
// does not use this queue on its hot path (batches are delivered
// synchronously, per spec.md Section 4.E) — it exists for collaborators
// built on top of the core that need a cancellation-aware mailbox, the
// same role VBlockingQueue plays for CommMessageReceiver in the original.

package session

import (
	"sync"

	"github.com/eapache/queue"
)

// BlockingQueue is a single-type FIFO guarded by a mutex and condition
// variable, observing (but not owning) a CancellationToken.
type BlockingQueue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  *queue.Queue

	token   CancellationToken
	drain   bool
	stopped bool
}

// NewBlockingQueue constructs a queue that observes token for
// cancellation. drainAfterStop controls whether TryTake/WaitAndTake keep
// returning queued items after Stop/cancellation (true) or start
// returning nothing immediately (false).
func NewBlockingQueue[T any](token CancellationToken, drainAfterStop bool) *BlockingQueue[T] {
	q := &BlockingQueue[T]{
		buf:   queue.New(),
		token: token,
		drain: drainAfterStop,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *BlockingQueue[T]) rejectEnqueue() bool {
	return q.token.Cancelled() || q.stopped
}

// Enqueue appends item. Returns false if the queue is stopped or
// cancelled; enqueue on a stopped queue is silently rejected, never an
// error.
func (q *BlockingQueue[T]) Enqueue(item T) bool {
	q.mu.Lock()
	if q.rejectEnqueue() {
		q.mu.Unlock()
		return false
	}
	q.buf.Add(item)
	q.mu.Unlock()
	q.cond.Signal()
	return true
}

// EnqueueBatch appends every item in items, or none of them if rejected.
func (q *BlockingQueue[T]) EnqueueBatch(items []T) bool {
	q.mu.Lock()
	if q.rejectEnqueue() {
		q.mu.Unlock()
		return false
	}
	for _, item := range items {
		q.buf.Add(item)
	}
	q.mu.Unlock()
	q.cond.Broadcast()
	return true
}

// canTakeLocked reports whether a pending item (if any) may still be
// handed out, per the drain-after-stop policy. Caller holds q.mu.
func (q *BlockingQueue[T]) canTakeLocked() bool {
	if !q.token.Cancelled() && !q.stopped {
		return true
	}
	return q.drain
}

// TryTake returns the next item without blocking. ok is false if the
// queue is empty, or if it is stopped/cancelled and not draining.
func (q *BlockingQueue[T]) TryTake() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.canTakeLocked() {
		return item, false
	}
	if q.buf.Length() == 0 {
		return item, false
	}
	item = q.buf.Remove().(T)
	return item, true
}

// WaitAndTake blocks until an item is available, or the queue becomes
// stopped/cancelled. A blocked waiter is woken only by Enqueue,
// EnqueueBatch or Stop; cancellation of the token is observed at the next
// such wake-up. If it wakes because the queue was stopped/cancelled
// and has nothing left to drain, it calls Stop itself so any other
// blocked waiter also unblocks, then returns ok=false.
func (q *BlockingQueue[T]) WaitAndTake() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.buf.Length() == 0 && !q.token.Cancelled() && !q.stopped {
		q.cond.Wait()
	}

	if q.buf.Length() > 0 && q.canTakeLocked() {
		item = q.buf.Remove().(T)
		return item, true
	}

	q.stopLocked()
	return item, false
}

// Stop idempotently halts the queue and wakes every blocked waiter.
func (q *BlockingQueue[T]) Stop() {
	q.mu.Lock()
	q.stopLocked()
	q.mu.Unlock()
}

func (q *BlockingQueue[T]) stopLocked() {
	if q.stopped {
		return
	}
	q.stopped = true
	q.cond.Broadcast()
}

// Clear empties the queue without marking it stopped.
func (q *BlockingQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = queue.New()
}

// Size returns the current item count.
func (q *BlockingQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Length()
}

// Stopped reports whether Stop has been called.
func (q *BlockingQueue[T]) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

package session_test

import (
	"testing"

	"github.com/momentics/sessionmux/session"
)

func TestBlockingQueueEnqueueTryTake(t *testing.T) {
	var tok session.CancellationToken
	src := session.NewCancellationSource()
	tok = src.Token()

	q := session.NewBlockingQueue[int](tok, false)
	if !q.Enqueue(1) {
		t.Fatal("Enqueue should succeed")
	}
	if !q.Enqueue(2) {
		t.Fatal("Enqueue should succeed")
	}
	if q.Size() != 2 {
		t.Fatalf("expected size 2, got %d", q.Size())
	}

	v, ok := q.TryTake()
	if !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", v, ok)
	}
}

func TestBlockingQueueWaitAndTake(t *testing.T) {
	src := session.NewCancellationSource()
	q := session.NewBlockingQueue[string](src.Token(), false)

	done := make(chan string, 1)
	go func() {
		v, ok := q.WaitAndTake()
		if !ok {
			done <- ""
			return
		}
		done <- v
	}()

	q.Enqueue("hello")
	if got := <-done; got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestBlockingQueueStopRejectsWithoutDrain(t *testing.T) {
	src := session.NewCancellationSource()
	q := session.NewBlockingQueue[int](src.Token(), false)

	q.Enqueue(1)
	q.Stop()

	if q.Enqueue(2) {
		t.Error("Enqueue after Stop should be rejected")
	}
	if _, ok := q.TryTake(); ok {
		t.Error("TryTake after Stop without drain should return false")
	}
}

func TestBlockingQueueDrainsAfterStop(t *testing.T) {
	src := session.NewCancellationSource()
	q := session.NewBlockingQueue[int](src.Token(), true)

	q.Enqueue(1)
	q.Enqueue(2)
	q.Stop()

	v, ok := q.TryTake()
	if !ok || v != 1 {
		t.Fatalf("expected to drain (1, true) after stop, got (%d, %v)", v, ok)
	}
}

func TestBlockingQueueCancellationUnblocksWaiters(t *testing.T) {
	src := session.NewCancellationSource()
	q := session.NewBlockingQueue[int](src.Token(), false)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.WaitAndTake()
		done <- ok
	}()

	// Cancel alone does not wake a blocked waiter; Stop does, and the
	// waiter then sees the cancelled, empty queue.
	src.Cancel()
	q.Stop()

	if ok := <-done; ok {
		t.Error("expected WaitAndTake to return ok=false after cancellation")
	}
}

// File: session/subscriber.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SubscriberRegistry fans a batch out to every subscribed handler. It
// follows the original's lock-collect-then-unlock-invoke shape: the
// mutex only ever guards the map itself, never a handler invocation, so a
// handler that subscribes or unsubscribes from inside HandleEvent cannot
// deadlock the registry.
//
// The original additionally held subscribers by weak_ptr and pruned dead
// ones on every raise, because C++ shared ownership needs that to avoid
// keeping a destroyed handler alive. Go subscribers are ordinary
// interface values collected by the GC once Unsubscribe removes the
// registry's last reference, so that pruning step has no equivalent here.

package session

import (
	"sync"

	"github.com/google/uuid"
)

// SubscriberRegistry holds an insertion-ordered set of (uuid, handler)
// subscriptions and fans batches out to all of them.
type SubscriberRegistry[T EventHandler] struct {
	mu    sync.Mutex
	order []uuid.UUID
	byID  map[uuid.UUID]T
}

// NewSubscriberRegistry constructs an empty registry.
func NewSubscriberRegistry[T EventHandler]() *SubscriberRegistry[T] {
	return &SubscriberRegistry[T]{byID: make(map[uuid.UUID]T)}
}

// Subscribe adds handler under id. Returns false if id is already
// subscribed, matching the original's idempotent-subscribe contract.
func (r *SubscriberRegistry[T]) Subscribe(id uuid.UUID, handler T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return false
	}
	r.byID[id] = handler
	r.order = append(r.order, id)
	return true
}

// Unsubscribe removes id. Returns false if it was not subscribed.
func (r *SubscriberRegistry[T]) Unsubscribe(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return false
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len reports the current subscriber count.
func (r *SubscriberRegistry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Raise snapshots the current subscriber list under lock, releases the
// lock, then invokes HandleEvent(batch) on each in subscription order.
// A subscriber added after the snapshot is taken does not see this
// batch; one removed after the snapshot still does, since its handler
// value was already copied out.
func (r *SubscriberRegistry[T]) Raise(batch Batch) {
	if len(batch) == 0 {
		return
	}

	r.mu.Lock()
	handlers := make([]T, len(r.order))
	for i, id := range r.order {
		handlers[i] = r.byID[id]
	}
	r.mu.Unlock()

	for _, handler := range handlers {
		handler.HandleEvent(batch)
	}
}

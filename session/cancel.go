// File: session/cancel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One-shot, read-many cancellation. A CancellationSource is owned by the
// component that decides when to stop (an event producer, a polling
// thread); CancellationToken is a cheap, copyable handle that any number
// of collaborators can hold to observe that decision without extending
// the source's lifetime.

package session

import (
	"runtime"

	"go.uber.org/atomic"
)

// CancellationSource owns the single point of truth for "has this task
// been asked to stop". Cancel is a one-way, idempotent-false transition.
type CancellationSource struct {
	cancelled *atomic.Bool
}

// NewCancellationSource returns a source in the not-cancelled state. Once
// the source is garbage collected, its tokens report cancelled.
func NewCancellationSource() *CancellationSource {
	s := &CancellationSource{cancelled: atomic.NewBool(false)}
	runtime.SetFinalizer(s, func(s *CancellationSource) { s.cancelled.Store(true) })
	return s
}

// Cancel transitions false->true. Returns true iff this call performed
// the transition.
func (s *CancellationSource) Cancel() bool {
	return s.cancelled.CompareAndSwap(false, true)
}

// Cancelled reports the current state.
func (s *CancellationSource) Cancelled() bool {
	return s.cancelled.Load()
}

// Token returns a new handle to this source's flag. The handle's
// lifetime is independent of the source's.
func (s *CancellationSource) Token() CancellationToken {
	return CancellationToken{flag: s.cancelled}
}

// CancellationToken is a read-only, weak view of a CancellationSource's
// flag. It is safe to copy and to hold past the source's own lifetime:
// a token whose source has been garbage collected reports cancelled,
// never panics or blocks.
type CancellationToken struct {
	flag *atomic.Bool
}

// Cancelled returns true if the parent source's flag is set, or if there
// is no parent to ask (a zero-value token is always cancelled).
func (t CancellationToken) Cancelled() bool {
	if t.flag == nil {
		return true
	}
	return t.flag.Load()
}

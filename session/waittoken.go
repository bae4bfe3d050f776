// File: session/waittoken.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The cooperative pause/resume gate used by the event-array producer's
// coordinator (see producer/eventarray_windows.go) to hold every polling
// thread still while it repartitions the shared sessions vector. Unlike
// CancellationSource, this gate cycles: Wait puts it in the waiting state,
// Continue releases every blocked token at once.

package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// WaitTokenSource is the single writer of the pause/resume flag.
type WaitTokenSource struct {
	waiting *atomic.Bool
	cond    *sync.Cond
	mu      *sync.Mutex
}

// NewWaitTokenSource constructs a source in the given initial state.
func NewWaitTokenSource(startWaiting bool) *WaitTokenSource {
	mu := &sync.Mutex{}
	return &WaitTokenSource{
		waiting: atomic.NewBool(startWaiting),
		cond:    sync.NewCond(mu),
		mu:      mu,
	}
}

// Waiting reports the current gate state.
func (s *WaitTokenSource) Waiting() bool {
	return s.waiting.Load()
}

// Wait transitions false->true under the mutex so that waking tokens
// always observe the new state. Returns true iff this call performed the
// transition.
func (s *WaitTokenSource) Wait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiting.CompareAndSwap(false, true)
}

// Continue transitions true->false and wakes every blocked token.
// notify_all is required, not notify_one: multiple polling threads may be
// parked in WaitUntilContinue at once.
func (s *WaitTokenSource) Continue() bool {
	s.mu.Lock()
	changed := s.waiting.CompareAndSwap(true, false)
	s.mu.Unlock()
	if changed {
		s.cond.Broadcast()
	}
	return changed
}

// Token returns a handle usable from any goroutine that needs to block on
// this gate. Tokens may outlive the source.
func (s *WaitTokenSource) Token() WaitToken {
	return WaitToken{waiting: s.waiting, cond: s.cond, mu: s.mu}
}

// WaitToken lets a polling thread check or block on a WaitTokenSource's
// gate without being able to change it.
type WaitToken struct {
	waiting *atomic.Bool
	cond    *sync.Cond
	mu      *sync.Mutex
}

// Waiting reports whether the parent source currently holds the gate
// closed. A zero-value token (parent gone, in spirit) reports false: it
// never blocks a caller that outlived its source.
func (t WaitToken) Waiting() bool {
	if t.waiting == nil {
		return false
	}
	return t.waiting.Load()
}

// WaitUntilContinue blocks until the gate opens. Spurious wakeups are
// handled by re-checking the predicate, matching the original's
// condition_variable::wait(lock, predicate) form.
func (t WaitToken) WaitUntilContinue() {
	if t.mu == nil {
		return
	}
	t.mu.Lock()
	for t.Waiting() {
		t.cond.Wait()
	}
	t.mu.Unlock()
}

// ErrInvalidTimeout is returned by WaitUntilContinueOrTimeout when given
// a non-positive timeout, matching the original's std::invalid_argument.
var ErrInvalidTimeout = errors.New("session: timeout must be greater than zero")

// WaitUntilContinueOrTimeout blocks until the gate opens or the timeout
// elapses, returning true iff the gate opened before the deadline.
//
// sync.Cond has no timed wait; the deadline is enforced by a helper
// goroutine that broadcasts once the timer fires, mirroring the effect of
// condition_variable::wait_for without needing a channel-based condition
// variable reimplementation for the common (untimed) path.
func (t WaitToken) WaitUntilContinueOrTimeout(timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		return false, ErrInvalidTimeout
	}
	if t.mu == nil {
		return true, nil
	}

	deadline := time.Now().Add(timeout)
	timedOut := atomic.NewBool(false)
	timer := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer timer.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for t.Waiting() {
		if timedOut.Load() || time.Now().After(deadline) {
			return false, nil
		}
		t.cond.Wait()
	}
	return true, nil
}

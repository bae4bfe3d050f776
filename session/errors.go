// File: session/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors for using a producer outside its started lifetime. The
// producers return them wrapped in a *FatalError; errors.Is matches them
// through that wrapping. Duplicate subscription and unknown handler
// unsubscribe are reported as a plain bool, not as an error.
var (
	// ErrAlreadyStopped is matched by the error Start/UpdateSessions
	// return once Stop has been called; the caller must not expect the
	// producer to recover.
	ErrAlreadyStopped = errors.New("session: producer stopped and cannot be restarted")

	// ErrNotStarted is matched by the error UpdateSessions returns when
	// the producer has never been started.
	ErrNotStarted = errors.New("session: producer is not started")
)

// FatalError is the error type the producers return from Start and
// UpdateSessions. It wraps a protocol-invariant violation (the abort event
// could not be set/reset, or the coordinator could not confirm that every
// polling thread paused or resumed), a failure to create the producer's OS
// wait object at Start, or use of the producer before Start or after Stop
// (ErrNotStarted / ErrAlreadyStopped). Per spec.md Section 7, this is the
// one error class that is not absorbed locally.
type FatalError struct {
	cause error
}

// NewFatalError wraps cause with a stack trace via cockroachdb/errors.
func NewFatalError(cause error) *FatalError {
	return &FatalError{cause: errors.WithStack(cause)}
}

func (e *FatalError) Error() string {
	return e.cause.Error()
}

func (e *FatalError) Unwrap() error {
	return e.cause
}

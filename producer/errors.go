// File: producer/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sentinel errors shared by both platform implementations. Wrapped in
// *session.FatalError at the call site since each names a protocol
// invariant violation, not a per-session failure (SPEC_FULL.md Section 7).
// Each unwraps to the matching session sentinel (session.ErrAlreadyStopped
// or session.ErrNotStarted), so callers can tell them apart with errors.Is.

package producer

import "github.com/momentics/sessionmux/session"

var (
	errRestartAfterStop       = errRestart{}
	errStoppedCannotManage    = errStopped{}
	errNotStartedCannotManage = errNotStarted{}
)

type errRestart struct{}

func (errRestart) Error() string { return "producer: stopped and cannot be restarted" }
func (errRestart) Unwrap() error { return session.ErrAlreadyStopped }

type errStopped struct{}

func (errStopped) Error() string { return "producer: stopped and cannot be used to manage sessions" }
func (errStopped) Unwrap() error { return session.ErrAlreadyStopped }

type errNotStarted struct{}

func (errNotStarted) Error() string {
	return "producer: not started and cannot be used to manage sessions"
}
func (errNotStarted) Unwrap() error { return session.ErrNotStarted }

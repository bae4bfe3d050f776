// File: producer/producer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventProducer is the contract both polling strategies (readiness-API on
// Linux, event-array on Windows) satisfy. Exactly one implementation is
// compiled in per platform; see factory_linux.go / factory_windows.go /
// factory_stub.go.

package producer

import (
	"github.com/google/uuid"

	"github.com/momentics/sessionmux/metrics"
	"github.com/momentics/sessionmux/session"
)

// EventProducer watches a set of sessions' sockets for readability and
// peer-close, fanning batches out to subscribed handlers.
type EventProducer interface {
	// Start begins polling. Returns false if already started. Returns a
	// *session.FatalError if the producer was previously Stopped: it is
	// single-use, not restartable.
	Start() (bool, error)

	// Stop halts polling and joins every polling goroutine. Returns
	// false if not started or already stopped. Irreversible.
	Stop() bool

	// Started reports whether the producer is actively polling.
	Started() bool

	// CanStart reports whether Start would succeed.
	CanStart() bool

	// UpdateSessions adds newSessions and removes closedSessions from the
	// registry this producer polls. Returns a *session.FatalError if
	// called before Start or after Stop, or if a protocol invariant is
	// violated (the latter only on the event-array platform's
	// pause/resume coordinator).
	UpdateSessions(newSessions, closedSessions []*session.SessionInfo) error

	// Rearm re-enables notification for a one-shot session after its
	// bytes have been consumed. Only meaningful on the readiness-API
	// platform; the event-array platform's manual-reset events make this
	// a no-op there.
	Rearm(s *session.SessionInfo)

	// SubscribeToReadEvents/UnsubscribeFromReadEvents and their Closed
	// counterparts delegate to the internal subscriber fan-out. See
	// session.SubscriberRegistry for the exact semantics (idempotent
	// subscribe, false-not-error for duplicates/unknowns).
	SubscribeToReadEvents(id uuid.UUID, h session.EventHandler) bool
	UnsubscribeFromReadEvents(id uuid.UUID) bool
	SubscribeToClosedEvents(id uuid.UUID, h session.EventHandler) bool
	UnsubscribeFromClosedEvents(id uuid.UUID) bool

	// Name identifies this producer instance for logging.
	Name() string

	// SetMetrics attaches m so this producer's fan-out and failure paths
	// report to it. Optional; a producer with no metrics attached simply
	// skips reporting.
	SetMetrics(m *metrics.Producer)
}

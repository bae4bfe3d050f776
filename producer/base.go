// File: producer/base.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared subscriber fan-out and naming, embedded by both platform
// implementations. Grounded on VCommSessionEventProducer, the abstract
// base both VEventProducer and VWSAEventProducer derive from in the
// original.

package producer

import (
	"github.com/google/uuid"

	"github.com/momentics/sessionmux/metrics"
	"github.com/momentics/sessionmux/session"
)

type fanout struct {
	name           string
	readHandlers   *session.SubscriberRegistry[session.EventHandler]
	closedHandlers *session.SubscriberRegistry[session.EventHandler]
	metrics        *metrics.Producer
}

func newFanout(name string) fanout {
	return fanout{
		name:           name,
		readHandlers:   session.NewSubscriberRegistry[session.EventHandler](),
		closedHandlers: session.NewSubscriberRegistry[session.EventHandler](),
	}
}

func (f *fanout) Name() string { return f.name }

// SetMetrics attaches m so subsequent Raise calls update its counters.
// Optional: a producer with no metrics attached simply skips reporting.
func (f *fanout) SetMetrics(m *metrics.Producer) { f.metrics = m }

func (f *fanout) SubscribeToReadEvents(id uuid.UUID, h session.EventHandler) bool {
	return f.readHandlers.Subscribe(id, h)
}

func (f *fanout) UnsubscribeFromReadEvents(id uuid.UUID) bool {
	return f.readHandlers.Unsubscribe(id)
}

func (f *fanout) SubscribeToClosedEvents(id uuid.UUID, h session.EventHandler) bool {
	return f.closedHandlers.Subscribe(id, h)
}

func (f *fanout) UnsubscribeFromClosedEvents(id uuid.UUID) bool {
	return f.closedHandlers.Unsubscribe(id)
}

func (f *fanout) raiseRead(batch session.Batch) {
	if f.metrics != nil {
		f.metrics.ReadableBatches.Inc()
	}
	f.readHandlers.Raise(batch)
}

func (f *fanout) raiseClosed(batch session.Batch) {
	if f.metrics != nil {
		f.metrics.ClosedBatches.Inc()
	}
	f.closedHandlers.Raise(batch)
}

// fatal wraps cause as a *session.FatalError and, if metrics are
// attached, counts it. Every fatal path in both platform implementations
// routes through this so the metric and the error type stay in sync.
func (f *fanout) fatal(cause error) error {
	if f.metrics != nil {
		f.metrics.FatalErrors.Inc()
	}
	return session.NewFatalError(cause)
}

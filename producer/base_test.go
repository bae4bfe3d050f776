package producer

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/momentics/sessionmux/metrics"
	"github.com/momentics/sessionmux/session"
)

type countingHandler struct{ n int }

func (h *countingHandler) HandleEvent(batch session.Batch) { h.n += len(batch) }

func TestFanoutSubscribeAndRaise(t *testing.T) {
	f := newFanout("test")
	h := &countingHandler{}
	id := uuid.New()

	if !f.SubscribeToReadEvents(id, h) {
		t.Fatal("SubscribeToReadEvents should succeed")
	}
	f.raiseRead(session.Batch{{}, {}})
	if h.n != 2 {
		t.Fatalf("expected handler to see 2 sessions, got %d", h.n)
	}

	if !f.UnsubscribeFromReadEvents(id) {
		t.Fatal("UnsubscribeFromReadEvents should succeed")
	}
	f.raiseRead(session.Batch{{}})
	if h.n != 2 {
		t.Fatalf("expected no further delivery after unsubscribe, got %d", h.n)
	}
}

func TestFanoutFatalIncrementsMetric(t *testing.T) {
	f := newFanout("test")
	reg := prometheus.NewRegistry()
	m := metrics.NewProducer(reg, "test")
	f.SetMetrics(m)

	cause := errors.New("boom")
	err := f.fatal(cause)

	var fe *session.FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *session.FatalError, got %T", err)
	}
	if got := testutil.ToFloat64(m.FatalErrors); got != 1 {
		t.Fatalf("expected FatalErrors=1, got %v", got)
	}
}

func TestFanoutRaiseBatchesIncrementMetrics(t *testing.T) {
	f := newFanout("test")
	reg := prometheus.NewRegistry()
	m := metrics.NewProducer(reg, "test")
	f.SetMetrics(m)

	f.raiseRead(session.Batch{{}})
	f.raiseClosed(session.Batch{{}})

	if got := testutil.ToFloat64(m.ReadableBatches); got != 1 {
		t.Errorf("expected ReadableBatches=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.ClosedBatches); got != 1 {
		t.Errorf("expected ClosedBatches=1, got %v", got)
	}
}

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/momentics/sessionmux/metrics"
)

func TestNewProducerRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := metrics.NewProducer(reg, "demo")

	p.RegisteredSessions.Set(3)
	p.PollingThreads.Set(2)
	p.ReadableBatches.Inc()
	p.ClosedBatches.Inc()
	p.FatalErrors.Inc()

	if got := testutil.ToFloat64(p.RegisteredSessions); got != 3 {
		t.Errorf("expected RegisteredSessions=3, got %v", got)
	}
	if got := testutil.ToFloat64(p.PollingThreads); got != 2 {
		t.Errorf("expected PollingThreads=2, got %v", got)
	}
	if got := testutil.ToFloat64(p.ReadableBatches); got != 1 {
		t.Errorf("expected ReadableBatches=1, got %v", got)
	}

	count, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 registered metric families, got %d", count)
	}
}

func TestNewProducerNilRegistererSkipsRegistration(t *testing.T) {
	p := metrics.NewProducer(nil, "demo")
	if p == nil {
		t.Fatal("NewProducer should still construct collectors with a nil registerer")
	}
	p.FatalErrors.Inc() // must not panic absent a registry
}

// File: metrics/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus collectors for producer operational state. New; SPEC_FULL.md
// Section 1 ambient stack addition. Deliberately narrow: it reports only
// what this core owns (registry size, polling-thread count, batches
// delivered, fatal errors) and never duplicates the original's global
// network-statistics monitor, which SPEC_FULL.md Section 9 places outside
// this core's scope as an injected collaborator.

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Producer holds the metric collectors one EventProducer instance
// updates over its lifetime.
type Producer struct {
	RegisteredSessions prometheus.Gauge
	PollingThreads     prometheus.Gauge
	ReadableBatches    prometheus.Counter
	ClosedBatches      prometheus.Counter
	FatalErrors        prometheus.Counter
}

// NewProducer constructs and registers a Producer's collectors against
// reg, labeling every metric with the producer's name so multiple
// instances can share a registry.
func NewProducer(reg prometheus.Registerer, name string) *Producer {
	labels := prometheus.Labels{"producer": name}

	p := &Producer{
		RegisteredSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sessionmux",
			Subsystem:   "producer",
			Name:        "registered_sessions",
			Help:        "Current number of sessions registered with this producer.",
			ConstLabels: labels,
		}),
		PollingThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sessionmux",
			Subsystem:   "producer",
			Name:        "polling_threads",
			Help:        "Current number of polling goroutines owned by this producer.",
			ConstLabels: labels,
		}),
		ReadableBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sessionmux",
			Subsystem:   "producer",
			Name:        "readable_batches_total",
			Help:        "Total number of readable-event batches raised.",
			ConstLabels: labels,
		}),
		ClosedBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sessionmux",
			Subsystem:   "producer",
			Name:        "closed_batches_total",
			Help:        "Total number of closed-event batches raised.",
			ConstLabels: labels,
		}),
		FatalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sessionmux",
			Subsystem:   "producer",
			Name:        "fatal_errors_total",
			Help:        "Total number of protocol-invariant fatal errors surfaced by this producer.",
			ConstLabels: labels,
		}),
	}

	if reg != nil {
		reg.MustRegister(p.RegisteredSessions, p.PollingThreads, p.ReadableBatches, p.ClosedBatches, p.FatalErrors)
	}

	return p
}

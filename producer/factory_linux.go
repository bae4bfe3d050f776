//go:build linux
// +build linux

// File: producer/factory_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package producer

import "go.uber.org/zap"

// New constructs the platform's EventProducer: the readiness-API
// (epoll) strategy on Linux. cfg is accepted for interface symmetry with
// the event-array platform but ignored, since epoll needs no per-thread
// partitioning.
func New(name string, cfg Config, log *zap.Logger) (EventProducer, error) {
	return NewReadinessProducer(name, log), nil
}

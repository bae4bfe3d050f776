//go:build windows
// +build windows

// File: producer/factory_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package producer

import "go.uber.org/zap"

// New constructs the platform's EventProducer: the event-array
// (WSAEventSelect) strategy on Windows.
func New(name string, cfg Config, log *zap.Logger) (EventProducer, error) {
	return NewEventArrayProducer(name, cfg, log), nil
}

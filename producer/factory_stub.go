//go:build !linux && !windows
// +build !linux,!windows

// File: producer/factory_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub implementation for unsupported platforms.

package producer

import (
	"errors"

	"go.uber.org/zap"
)

// New returns an error for unsupported platforms.
func New(name string, cfg Config, log *zap.Logger) (EventProducer, error) {
	return nil, errors.New("producer: this platform is not supported")
}

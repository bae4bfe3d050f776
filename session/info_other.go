//go:build !linux && !windows
// +build !linux,!windows

// File: session/info_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Neither Linux nor Windows: there is no readiness or event-array
// producer for this platform (see producer/factory_stub.go), so
// SessionInfo never needs a real OS handle. A session may still be
// constructed (e.g. in platform-independent unit tests of the registry
// itself) as long as it is never handed to a producer.

package session

type noopHandle struct{}

func (noopHandle) close() error { return nil }

func newOSHandle(sess Session) (platformHandle, error) {
	return noopHandle{}, nil
}

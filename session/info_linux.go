//go:build linux
// +build linux

// File: session/info_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// On Linux the OS handle behind a SessionInfo is not a kernel object at
// all: it is the epoll interest mask the readiness producer installs with
// EPOLL_CTL_ADD/MOD. There is nothing to close at session teardown beyond
// the socket itself, which Session owns.

package session

import "golang.org/x/sys/unix"

// defaultReadinessMask is level-resilient edge-triggered, one-shot: the
// producer must re-arm a session after handling it, and must not be
// handed the same socket concurrently from two polling threads.
const defaultReadinessMask = unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLET | unix.EPOLLONESHOT

type readinessHandle struct {
	mask uint32
}

func (h *readinessHandle) close() error { return nil }

func newOSHandle(sess Session) (platformHandle, error) {
	return &readinessHandle{mask: uint32(defaultReadinessMask)}, nil
}

// ReadinessMask returns the epoll interest mask this session registers
// with, for use by producer.EventProducer implementations built on epoll.
// Panics if called on a session with no platform handle, i.e. one that
// was never Connected.
func (si *SessionInfo) ReadinessMask() uint32 {
	return si.handle.(*readinessHandle).mask
}

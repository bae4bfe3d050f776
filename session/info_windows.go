//go:build windows
// +build windows

// File: session/info_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// On Windows the OS handle behind a SessionInfo is a real kernel object:
// a manual-reset WSAEVENT created and associated with the socket at
// registration time, closed at session teardown. This mirrors
// VWSAEventProducer's per-session WSAEVENT lifetime in the original.

package session

import "golang.org/x/sys/windows"

type eventHandle struct {
	event windows.Handle
}

func (h *eventHandle) close() error {
	return WSACloseEventHandle(h.event)
}

func newOSHandle(sess Session) (platformHandle, error) {
	ev, err := WSACreateEvent()
	if err != nil {
		return nil, err
	}
	if err := WSAEventSelectSocket(sess.Socket(), ev, FDRead|FDClose); err != nil {
		_ = WSACloseEventHandle(ev)
		return nil, err
	}
	return &eventHandle{event: ev}, nil
}

// SocketEvent returns the manual-reset WSAEVENT registered for this
// session, for use by producer.EventProducer implementations built on
// WSAEventSelect/WSAWaitForMultipleEvents. Panics if called on a session
// with no platform handle, i.e. one that was never Connected.
func (si *SessionInfo) SocketEvent() windows.Handle {
	return si.handle.(*eventHandle).event
}

// EnumNetworkEvents drains and resets this session's event, returning
// which of FDRead/FDClose actually fired.
func (si *SessionInfo) EnumNetworkEvents() (WSANetworkEvents, error) {
	return WSAEnumNetworkEventsSocket(si.Socket(), si.SocketEvent())
}

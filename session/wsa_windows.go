//go:build windows
// +build windows

// File: session/wsa_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// golang.org/x/sys/windows exposes WSAStartup/WSAIoctl and friends but not
// the WSAEVENT family (WSACreateEvent, WSAEventSelect, WSAWaitForMultipleEvents,
// WSAEnumNetworkEvents, WSASetEvent, WSAResetEvent, WSACloseEvent): those
// live only in ws2_32.dll. Both session (event creation/teardown) and
// producer (the wait/enum loop) need them, so the bindings live here and
// producer imports this package rather than duplicating them.

package session

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modws2_32 = windows.NewLazySystemDLL("ws2_32.dll")

	procWSACreateEvent         = modws2_32.NewProc("WSACreateEvent")
	procWSACloseEvent          = modws2_32.NewProc("WSACloseEvent")
	procWSAEventSelect         = modws2_32.NewProc("WSAEventSelect")
	procWSAWaitForMultipleEvts = modws2_32.NewProc("WSAWaitForMultipleEvents")
	procWSAEnumNetworkEvents   = modws2_32.NewProc("WSAEnumNetworkEvents")
	procWSASetEvent            = modws2_32.NewProc("WSASetEvent")
	procWSAResetEvent          = modws2_32.NewProc("WSAResetEvent")
)

const (
	// FDRead and FDClose are the two network events this core watches:
	// incoming bytes, and peer shutdown. Framing/backpressure concerns
	// (FD_WRITE) are an external collaborator's problem.
	FDRead  = 1 << 0
	FDClose = 1 << 5

	// WSAWaitFailed and WSAWaitTimeout mirror the WSA API's sentinel
	// return values for WSAWaitForMultipleEvents.
	WSAWaitFailed  = 0xFFFFFFFF
	WSAWaitTimeout = 0x00000102
	wsaInfinite    = 0xFFFFFFFF
)

// WSANetworkEvents mirrors the WSANETWORKEVENTS struct: a bitmask of
// events that occurred plus one error code per possible bit.
type WSANetworkEvents struct {
	NetworkEvents int32
	ErrorCode     [10]int32
}

// WSACreateEvent allocates a new manual-reset, initially-unset WSAEVENT.
func WSACreateEvent() (windows.Handle, error) {
	r1, _, err := procWSACreateEvent.Call()
	h := windows.Handle(r1)
	if h == windows.InvalidHandle {
		return h, err
	}
	return h, nil
}

// WSACloseEventHandle releases a WSAEVENT created by WSACreateEvent.
func WSACloseEventHandle(ev windows.Handle) error {
	r1, _, err := procWSACloseEvent.Call(uintptr(ev))
	if r1 == 0 {
		return err
	}
	return nil
}

// WSAEventSelectSocket associates ev with sock for the given event mask
// (FDRead|FDClose). From this call on, the socket is implicitly
// non-blocking.
func WSAEventSelectSocket(sock SocketID, ev windows.Handle, mask int32) error {
	r1, _, err := procWSAEventSelect.Call(uintptr(sock), uintptr(ev), uintptr(mask))
	if r1 != 0 {
		return err
	}
	return nil
}

// WSAWaitForMultipleEvents blocks until one of events signals, timeoutMS
// elapses, or (if alertable) an APC fires. Returns the index of the
// signaled event (relative to events[0]) or one of WSAWaitFailed/WSAWaitTimeout.
func WSAWaitForMultipleEvents(events []windows.Handle, waitAll bool, timeoutMS uint32) uint32 {
	var waitAllFlag uintptr
	if waitAll {
		waitAllFlag = 1
	}
	if timeoutMS == 0 && len(events) == 0 {
		return WSAWaitTimeout
	}
	r1, _, _ := procWSAWaitForMultipleEvts.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		waitAllFlag,
		uintptr(timeoutMS),
		0, // not alertable
	)
	return uint32(r1)
}

// WSAEnumNetworkEventsSocket retrieves and clears the set of network
// events that have occurred on sock since the last call, and resets ev.
func WSAEnumNetworkEventsSocket(sock SocketID, ev windows.Handle) (WSANetworkEvents, error) {
	var out WSANetworkEvents
	r1, _, err := procWSAEnumNetworkEvents.Call(uintptr(sock), uintptr(ev), uintptr(unsafe.Pointer(&out)))
	if r1 != 0 {
		return out, err
	}
	return out, nil
}

// WSASetManualEvent sets ev to the signaled state.
func WSASetManualEvent(ev windows.Handle) error {
	r1, _, err := procWSASetEvent.Call(uintptr(ev))
	if r1 == 0 {
		return err
	}
	return nil
}

// WSAResetManualEvent resets ev to the unsignaled state.
func WSAResetManualEvent(ev windows.Handle) error {
	r1, _, err := procWSAResetEvent.Call(uintptr(ev))
	if r1 == 0 {
		return err
	}
	return nil
}

// File: session/info.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SessionInfo is the registry's unit of record: an immutable identity, a
// mutable connection state, and the OS event handle the producer uses to
// watch this session's socket. See info_linux.go / info_windows.go /
// info_other.go for the platform-specific handle.

package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// platformHandle is the OS-specific event registration backing a
// SessionInfo: an immutable epoll interest mask on Linux, a manual-reset
// WSAEVENT on Windows. Defined per-platform in info_<os>.go.
type platformHandle interface {
	close() error
}

// SessionInfo represents one live or recently-live client session.
type SessionInfo struct {
	id uuid.UUID

	nameMu sync.RWMutex
	name   string

	sess Session

	state *atomic.Int32 // ConnectionState, CAS'd

	reception  MessageReceptionAfterDisconnect
	processing MessageProcessingAfterDisconnect

	waiting *atomic.Int32 // messages_waiting_to_be_processed

	handle platformHandle
}

// NewSessionInfo constructs a SessionInfo for sess. If the session is
// already connected (connectionState == Connected), its OS registration
// is performed immediately, matching the original's constructor-time
// CreateAndRegisterSocketEvent call (see SPEC_FULL.md Section 3 item 6).
//
// NewSessionInfo takes ownership of a reference to sess: it increments
// sess's refcount now and decrements it in Close.
func NewSessionInfo(
	name string,
	sess Session,
	connectionState ConnectionState,
	reception MessageReceptionAfterDisconnect,
	processing MessageProcessingAfterDisconnect,
) (*SessionInfo, error) {
	si := &SessionInfo{
		id:         uuid.New(),
		name:       name,
		sess:       sess,
		state:      atomic.NewInt32(int32(connectionState)),
		reception:  reception,
		processing: processing,
		waiting:    atomic.NewInt32(0),
	}

	sess.IncrementRefCount()

	if connectionState == Connected {
		handle, err := newOSHandle(sess)
		if err != nil {
			sess.DecrementRefCount()
			return nil, fmt.Errorf("session: register %s: %w", si.id, err)
		}
		si.handle = handle
	}

	return si, nil
}

// ID is the immutable identity used as the equality key across the
// registry, the subscriber fan-out, and logging.
func (si *SessionInfo) ID() uuid.UUID { return si.id }

// Equal reports whether two SessionInfo values share the same identity.
// Mirrors the original's VCommSessionInfoComparer (compare by UUID only;
// every other field is mutable).
func (si *SessionInfo) Equal(other *SessionInfo) bool {
	if other == nil {
		return false
	}
	return si.id == other.id
}

// Name returns the current display name.
func (si *SessionInfo) Name() string {
	si.nameMu.RLock()
	defer si.nameMu.RUnlock()
	return si.name
}

// SetName updates the display name, e.g. once a session authenticates.
func (si *SessionInfo) SetName(name string) {
	si.nameMu.Lock()
	si.name = name
	si.nameMu.Unlock()
}

// CommSession returns the owned Session collaborator.
func (si *SessionInfo) CommSession() Session { return si.sess }

// Socket returns the underlying socket handle, reached through Session.
func (si *SessionInfo) Socket() SocketID { return si.sess.Socket() }

// ConnectionState returns the current lifecycle state.
func (si *SessionInfo) ConnectionState() ConnectionState {
	return ConnectionState(si.state.Load())
}

// SetAsConnected CASes NotConnected->Connected. Returns true iff this
// call performed the transition.
func (si *SessionInfo) SetAsConnected() bool {
	return si.state.CompareAndSwap(int32(NotConnected), int32(Connected))
}

// SetAsDisconnected CASes Connected->Disconnected. Returns true iff this
// call performed the transition; Disconnected is terminal, so a second
// caller always observes false.
func (si *SessionInfo) SetAsDisconnected() bool {
	return si.state.CompareAndSwap(int32(Connected), int32(Disconnected))
}

// SupportForMessageReceptionAfterDisconnect reports whether the framer
// may keep reading queued bytes for this session after its peer closes.
func (si *SessionInfo) SupportForMessageReceptionAfterDisconnect() MessageReceptionAfterDisconnect {
	return si.reception
}

// SupportForMessageProcessingAfterDisconnect reports whether the
// dispatcher may keep delivering already-framed messages after close.
func (si *SessionInfo) SupportForMessageProcessingAfterDisconnect() MessageProcessingAfterDisconnect {
	return si.processing
}

// IncrementMessagesWaitingToBeProcessed marks one more message handed to
// dispatch; used by graceful teardown to know when it is safe to drop a
// disconnected session.
func (si *SessionInfo) IncrementMessagesWaitingToBeProcessed() int32 {
	return si.waiting.Inc()
}

// DecrementMessagesWaitingToBeProcessed marks dispatch completion for one
// message.
func (si *SessionInfo) DecrementMessagesWaitingToBeProcessed() int32 {
	return si.waiting.Dec()
}

// MessagesWaitingToBeProcessed returns the current outstanding count.
func (si *SessionInfo) MessagesWaitingToBeProcessed() int32 {
	return si.waiting.Load()
}

// Close releases this session's OS event handle (if one was registered)
// and decrements the owned Session's refcount. Callers must only invoke
// Close after the SessionInfo has been removed from every registry and
// released by every subscriber batch in flight.
func (si *SessionInfo) Close() error {
	var err error
	if si.handle != nil {
		err = si.handle.close()
	}
	si.sess.DecrementRefCount()
	return err
}

// String renders a diagnostic line for logging, matching the density of
// the original's VCommSessionInfo::ToString.
func (si *SessionInfo) String() string {
	return fmt.Sprintf(
		"SessionInfo{id=%s, name=%q, state=%s, waiting=%d}",
		si.id, si.Name(), si.ConnectionState(), si.MessagesWaitingToBeProcessed(),
	)
}

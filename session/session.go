// File: session/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Session is the application-level collaborator that knows how to read
// and dispatch a connection's bytes. It lives outside this core's scope
// (spec.md Section 1: byte-level transport and message framing are
// external collaborators) — this file only states the contract SessionInfo
// depends on.

package session

// SocketID is the raw OS socket handle, as returned by Session.Socket.
// On Linux this is an fd; on Windows, a SOCKET.
type SocketID uintptr

// TaskExecutionMode describes how a Session wants a unit of work (a
// receive, a dispatch) executed; defined here only because
// ReceiveIncomingMessage returns one. The execution model itself belongs
// to the out-of-scope dispatch/worker layer.
type TaskExecutionMode int

const (
	ExecuteInline TaskExecutionMode = iota
	ExecuteAsync
)

// Message is an opaque, already-framed application message. Framing is an
// out-of-scope collaborator; this core never looks inside one.
type Message any

// Session is the external, application-level connection object.
// SessionInfo keeps one of these alive for its own lifetime (see
// SessionInfo's refcount contract in types.go's companion, info.go) and
// reaches the underlying socket through it.
type Session interface {
	// Socket returns the raw OS socket handle backing this session.
	Socket() SocketID

	// MessageReceptionMode reports how this session prefers its receive
	// path to be scheduled.
	MessageReceptionMode() TaskExecutionMode

	// ReceiveIncomingMessage reads and frames the next message; the
	// execution mode it returns tells the (external) framer whether this
	// call may block.
	ReceiveIncomingMessage() (Message, TaskExecutionMode, error)

	// HandleRxMessage delivers an already-framed message to application
	// code.
	HandleRxMessage(Message)

	// Disconnect tears the session down. socketWasClosed distinguishes a
	// peer-initiated close from a local decision to disconnect.
	Disconnect(socketWasClosed bool)

	// IncrementRefCount/DecrementRefCount/CurrentRefCount back
	// SessionInfo's ownership contract: SessionInfo increments at
	// construction and decrements at destruction; nothing else should
	// call these.
	IncrementRefCount() int32
	DecrementRefCount() int32
	CurrentRefCount() int32

	// UserName is a display name used for logging as the session
	// authenticates; it may change over the session's lifetime.
	UserName() string
}

// EventHandler receives batches of sessions sharing one event type.
// Implementations must not block: the producer invokes handlers
// synchronously on the polling thread that produced the batch.
type EventHandler interface {
	HandleEvent(batch Batch)
}

// ReadableHandler receives batches of sessions that have readable bytes
// waiting.
type ReadableHandler = EventHandler

// ClosedHandler receives batches of sessions whose peer has closed.
type ClosedHandler = EventHandler

// File: session/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package session implements the session registry and lifecycle primitives
// used by the event-producer core: cancellation and wait-token sources,
// a blocking bounded queue, the SessionInfo record, and the subscriber
// fan-out used to deliver readable/closed batches to registered handlers.
//
// Nothing in this package performs socket I/O; that is the event producer's
// job (package producer). This package only tracks identity, connection
// state, and observer lists.
package session

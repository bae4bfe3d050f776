//go:build linux
// +build linux

package producer

import (
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/momentics/sessionmux/session"
)

// pipeSession backs a session.Session with one end of a real AF_UNIX
// socketpair, so the readiness producer's epoll instance has an actual
// fd to watch.
type pipeSession struct {
	fd   int
	refs int32
}

func newPipeSession(fd int) *pipeSession { return &pipeSession{fd: fd} }

func (s *pipeSession) Socket() session.SocketID { return session.SocketID(s.fd) }
func (s *pipeSession) MessageReceptionMode() session.TaskExecutionMode {
	return session.ExecuteInline
}
func (s *pipeSession) ReceiveIncomingMessage() (session.Message, session.TaskExecutionMode, error) {
	buf := make([]byte, 256)
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		return nil, session.ExecuteInline, err
	}
	if n == 0 {
		return nil, session.ExecuteInline, unix.ECONNRESET
	}
	return buf[:n], session.ExecuteInline, nil
}
func (s *pipeSession) HandleRxMessage(session.Message) {}
func (s *pipeSession) Disconnect(bool)                 { _ = unix.Close(s.fd) }
func (s *pipeSession) IncrementRefCount() int32        { s.refs++; return s.refs }
func (s *pipeSession) DecrementRefCount() int32        { s.refs--; return s.refs }
func (s *pipeSession) CurrentRefCount() int32          { return s.refs }
func (s *pipeSession) UserName() string                { return "pipe" }

type capturingHandler struct {
	mu   sync.Mutex
	got  session.Batch
	done chan struct{}
}

func newCapturingHandler() *capturingHandler {
	return &capturingHandler{done: make(chan struct{}, 1)}
}

func (h *capturingHandler) HandleEvent(batch session.Batch) {
	h.mu.Lock()
	h.got = append(h.got, batch...)
	h.mu.Unlock()
	select {
	case h.done <- struct{}{}:
	default:
	}
}

func TestReadinessProducerDeliversReadableBatch(t *testing.T) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	watched, writer := fds[0], fds[1]
	defer unix.Close(writer)
	defer unix.Close(watched)

	p := NewReadinessProducer("test", zap.NewNop())
	if ok, err := p.Start(); err != nil || !ok {
		t.Fatalf("Start() = (%v, %v)", ok, err)
	}
	defer p.Stop()

	handler := newCapturingHandler()
	p.SubscribeToReadEvents(uuid.New(), handler)

	sess := newPipeSession(watched)
	info, err := session.NewSessionInfo("watched", sess, session.Connected,
		session.ReceptionNotSupported, session.ProcessingNotSupported)
	if err != nil {
		t.Fatalf("NewSessionInfo: %v", err)
	}

	if err := p.UpdateSessions([]*session.SessionInfo{info}, nil); err != nil {
		t.Fatalf("UpdateSessions: %v", err)
	}

	if _, err := unix.Write(writer, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-handler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for readable batch")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.got) != 1 || !handler.got[0].Equal(info) {
		t.Fatalf("expected batch to contain the watched session, got %+v", handler.got)
	}
}

func TestReadinessProducerDeliversClosedBatch(t *testing.T) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	watched, writer := fds[0], fds[1]
	defer unix.Close(watched)

	p := NewReadinessProducer("test", zap.NewNop())
	if ok, err := p.Start(); err != nil || !ok {
		t.Fatalf("Start() = (%v, %v)", ok, err)
	}
	defer p.Stop()

	handler := newCapturingHandler()
	p.SubscribeToClosedEvents(uuid.New(), handler)

	sess := newPipeSession(watched)
	info, err := session.NewSessionInfo("watched", sess, session.Connected,
		session.ReceptionNotSupported, session.ProcessingNotSupported)
	if err != nil {
		t.Fatalf("NewSessionInfo: %v", err)
	}

	if err := p.UpdateSessions([]*session.SessionInfo{info}, nil); err != nil {
		t.Fatalf("UpdateSessions: %v", err)
	}

	_ = unix.Close(writer)

	select {
	case <-handler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for closed batch")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.got) != 1 || !handler.got[0].Equal(info) {
		t.Fatalf("expected batch to contain the watched session, got %+v", handler.got)
	}
	if info.ConnectionState() != session.Disconnected {
		t.Errorf("expected session to be marked Disconnected, got %s", info.ConnectionState())
	}
}

func TestReadinessProducerRejectsRestartAfterStop(t *testing.T) {
	p := NewReadinessProducer("test", zap.NewNop())
	if ok, err := p.Start(); err != nil || !ok {
		t.Fatalf("Start() = (%v, %v)", ok, err)
	}
	p.Stop()

	if _, err := p.Start(); err == nil {
		t.Fatal("expected Start after Stop to fail")
	}
}

//go:build linux
// +build linux

// File: producer/readiness_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A single-goroutine epoll-based EventProducer: the readiness-API
// strategy from SPEC_FULL.md 4.F1. Grounded line-for-line on
// VEventProducer (original_source/source/sockets/_unix/veventproducer.cpp).

package producer

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/momentics/sessionmux/session"
)

const (
	maxEpollEvents           = 1024
	epollWaitImmediateReturn = 0
)

// ReadinessProducer implements EventProducer on top of epoll. It runs a
// single polling goroutine regardless of Config, since epoll already
// multiplexes an arbitrary number of descriptors from one wait call.
type ReadinessProducer struct {
	fanout

	log *zap.Logger

	startStopMu sync.Mutex
	started     bool

	cancel *session.CancellationSource

	epollFD int

	sessionsMu sync.Mutex
	sessions   map[int32]*session.SessionInfo // keyed by fd

	done chan struct{}
}

// NewReadinessProducer constructs a stopped producer. Call Start to
// create the epoll instance and begin polling.
func NewReadinessProducer(name string, log *zap.Logger) *ReadinessProducer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReadinessProducer{
		fanout:   newFanout(name),
		log:      log.With(zap.String("producer", name)),
		cancel:   session.NewCancellationSource(),
		sessions: make(map[int32]*session.SessionInfo),
	}
}

func (p *ReadinessProducer) Start() (bool, error) {
	p.startStopMu.Lock()
	defer p.startStopMu.Unlock()

	p.log.Info("starting")

	if p.cancel.Cancelled() {
		return false, p.fatal(errRestartAfterStop)
	}
	if p.started {
		return false, nil
	}

	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return false, p.fatal(err)
	}
	p.epollFD = fd
	p.done = make(chan struct{})

	go p.listenAndProduceEvents()

	p.started = true
	if p.metrics != nil {
		p.metrics.PollingThreads.Set(1)
	}
	p.log.Info("started")
	return true, nil
}

func (p *ReadinessProducer) Stop() bool {
	if !p.started || p.cancel.Cancelled() {
		return false
	}
	p.started = false
	p.cancel.Cancel()

	p.startStopMu.Lock()
	defer p.startStopMu.Unlock()

	p.log.Info("stopping")
	<-p.done

	p.sessionsMu.Lock()
	p.sessions = make(map[int32]*session.SessionInfo)
	p.sessionsMu.Unlock()

	_ = unix.Close(p.epollFD)

	if p.metrics != nil {
		p.metrics.PollingThreads.Set(0)
		p.metrics.RegisteredSessions.Set(0)
	}

	p.log.Info("stopped")
	return true
}

func (p *ReadinessProducer) Started() bool  { return p.started && !p.cancel.Cancelled() }
func (p *ReadinessProducer) CanStart() bool { return !p.started && !p.cancel.Cancelled() }

func (p *ReadinessProducer) UpdateSessions(newSessions, closedSessions []*session.SessionInfo) error {
	if !p.started {
		if p.cancel.Cancelled() {
			return p.fatal(errStoppedCannotManage)
		}
		return p.fatal(errNotStartedCannotManage)
	}
	if p.cancel.Cancelled() {
		return nil
	}

	p.startStopMu.Lock()
	defer p.startStopMu.Unlock()

	p.sessionsMu.Lock()
	defer p.sessionsMu.Unlock()

	for _, closed := range closedSessions {
		fd := int32(closed.Socket())
		if _, ok := p.sessions[fd]; !ok {
			p.log.Error("collection erase failed", zap.Stringer("session", closed))
			continue
		}
		delete(p.sessions, fd)
		p.log.Debug("erased from collection", zap.Stringer("session", closed))
	}

	for _, added := range newSessions {
		if added.ConnectionState() != session.Connected {
			p.log.Error("refusing to register non-connected session", zap.Stringer("session", added))
			continue
		}
		fd := int32(added.Socket())
		if existing, ok := p.sessions[fd]; ok {
			p.log.Error("collection add failed, already contained",
				zap.Stringer("session", added), zap.Stringer("existing", existing))
			continue
		}
		p.sessions[fd] = added
		p.log.Debug("added session", zap.Stringer("session", added))

		event := unix.EpollEvent{Events: added.ReadinessMask(), Fd: fd}
		if err := unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_ADD, int(fd), &event); err != nil {
			p.log.Error("epoll add failed", zap.Stringer("session", added), zap.Error(err))
		}
	}

	if p.metrics != nil {
		p.metrics.RegisteredSessions.Set(float64(len(p.sessions)))
	}

	return nil
}

// Rearm re-enables notification for a session after one-shot delivery.
// A session that is already Disconnected is skipped with a Debug log.
func (p *ReadinessProducer) Rearm(s *session.SessionInfo) {
	if s.ConnectionState() == session.Disconnected {
		p.log.Debug("rearm skipped for disconnected session", zap.Stringer("session", s))
		return
	}
	fd := int32(s.Socket())
	event := unix.EpollEvent{Events: s.ReadinessMask(), Fd: fd}
	if err := unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_MOD, int(fd), &event); err != nil {
		p.log.Error("epoll rearm failed", zap.Stringer("session", s), zap.Error(err))
		return
	}
	p.log.Debug("rearmed session", zap.Stringer("session", s))
}

func (p *ReadinessProducer) listenAndProduceEvents() {
	defer close(p.done)

	p.log.Info("polling goroutine started")

	events := make([]unix.EpollEvent, maxEpollEvents)

	for !p.cancel.Cancelled() {
		var (
			numEvents int
			err       error
		)

		for {
			numEvents, err = unix.EpollWait(p.epollFD, events, epollWaitImmediateReturn)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				p.log.Error("epoll_wait failed", zap.Error(err))
				break
			}
			if numEvents == 0 {
				if p.cancel.Cancelled() {
					break
				}
				continue
			}
			break
		}

		if p.cancel.Cancelled() {
			break
		}
		if numEvents == 0 {
			continue
		}

		var readable, closed []*session.SessionInfo

		p.sessionsMu.Lock()
		for i := 0; i < numEvents; i++ {
			ev := events[i]
			sess, ok := p.sessions[ev.Fd]
			if !ok {
				continue
			}

			switch {
			case ev.Events&(unix.EPOLLRDHUP|unix.EPOLLHUP) != 0:
				if err := unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_DEL, int(ev.Fd), nil); err != nil {
					p.log.Error("EPOLL_CTL_DEL failed", zap.Int32("fd", ev.Fd), zap.Error(err))
				}
				sess.SetAsDisconnected()
				closed = append(closed, sess)
			case ev.Events&unix.EPOLLIN != 0:
				readable = append(readable, sess)
			default:
				p.log.Debug("unhandled event bits", zap.Uint32("bits", ev.Events))
			}
		}
		p.sessionsMu.Unlock()

		if len(readable) > 0 {
			p.raiseRead(readable)
		}
		if len(closed) > 0 {
			p.raiseClosed(closed)
		}
	}

	p.log.Info("polling goroutine stopped")
}

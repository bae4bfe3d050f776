//go:build windows
// +build windows

// File: producer/eventarray_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A multi-goroutine WSAEVENT-based EventProducer: the event-array
// strategy from SPEC_FULL.md 4.F2. Grounded on VWSAEventProducer
// (original_source/_win/vwsaeventproducer.cpp), including its 7-step
// pause/resume coordinator.
//
// Go substitutes for the original's primitives:
//   - boost::thread_group           -> sync.WaitGroup + goroutines
//   - per-thread "join event"       -> a bool guarded by pollingThread's
//                                      own cond var, set/reset from both
//                                      the coordinator and the polling
//                                      goroutine, exactly like the
//                                      original's HANDLE-based join event
//   - WaitForMultipleObjects(joins) -> waitForAllJoins, polling isJoined
//                                      on each thread with a bounded
//                                      number of retries (see
//                                      maxJoinWaitAttempts) instead of a
//                                      single native multi-wait call

package producer

import (
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/momentics/sessionmux/session"
)

const (
	pollingJoinTimeout    = 100 * time.Millisecond
	listenerIOWaitTimeout = 100 * time.Millisecond
	maxJoinWaitAttempts   = 3
)

// pollingThread tracks one goroutine's partition of the shared sessions
// slice plus its pause/resume acknowledgement state.
type pollingThread struct {
	id     int
	offset int
	count  int

	cancel *session.CancellationSource
	token  session.WaitToken

	joinMu   sync.Mutex
	joinCond *sync.Cond
	joined   bool
}

func newPollingThread(id, offset, count int, token session.WaitToken) *pollingThread {
	t := &pollingThread{
		id:     id,
		offset: offset,
		count:  count,
		cancel: session.NewCancellationSource(),
		token:  token,
	}
	t.joinCond = sync.NewCond(&t.joinMu)
	return t
}

func (t *pollingThread) setJoined() {
	t.joinMu.Lock()
	t.joined = true
	t.joinCond.Broadcast()
	t.joinMu.Unlock()
}

func (t *pollingThread) resetJoined() {
	t.joinMu.Lock()
	t.joined = false
	t.joinMu.Unlock()
}

func (t *pollingThread) isJoined() bool {
	t.joinMu.Lock()
	defer t.joinMu.Unlock()
	return t.joined
}

// EventArrayProducer implements EventProducer on top of WSAEventSelect +
// WSAWaitForMultipleEvents, partitioning sessions across a configurable
// number of polling goroutines.
type EventArrayProducer struct {
	fanout

	log *zap.Logger
	cfg Config

	startStopMu sync.Mutex
	started     bool
	cancel      *session.CancellationSource

	abortEvent    windows.Handle
	abortEventSet bool
	abortMu       sync.Mutex

	waitTokenSource *session.WaitTokenSource

	sessionsMu sync.Mutex
	sessions   []*session.SessionInfo

	threads []*pollingThread
	wg      sync.WaitGroup

	nextThreadID int
}

// NewEventArrayProducer constructs a stopped producer with cfg normalized
// (see Config.Normalize).
func NewEventArrayProducer(name string, cfg Config, log *zap.Logger) *EventArrayProducer {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventArrayProducer{
		fanout:          newFanout(name),
		log:             log.With(zap.String("producer", name)),
		cfg:             cfg.Normalize(),
		cancel:          session.NewCancellationSource(),
		waitTokenSource: session.NewWaitTokenSource(false),
	}
}

func (p *EventArrayProducer) Start() (bool, error) {
	p.startStopMu.Lock()
	defer p.startStopMu.Unlock()

	p.log.Info("starting")

	if p.cancel.Cancelled() {
		return false, p.fatal(errRestartAfterStop)
	}
	if p.started {
		return false, nil
	}

	ev, err := session.WSACreateEvent()
	if err != nil {
		return false, p.fatal(err)
	}
	p.abortEvent = ev

	for i := 1; i <= int(p.cfg.MinimumPollingThreads); i++ {
		p.spawnThread(i, 0, 0)
	}
	p.nextThreadID = int(p.cfg.MinimumPollingThreads) + 1

	p.started = true
	if p.metrics != nil {
		p.metrics.PollingThreads.Set(float64(len(p.threads)))
	}
	p.log.Info("started")
	return true, nil
}

func (p *EventArrayProducer) spawnThread(id, offset, count int) *pollingThread {
	t := newPollingThread(id, offset, count, p.waitTokenSource.Token())
	p.threads = append(p.threads, t)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.listenAndProduceEvents(t)
	}()
	return t
}

func (p *EventArrayProducer) Stop() bool {
	if !p.started || p.cancel.Cancelled() {
		return false
	}
	p.started = false
	p.cancel.Cancel()

	p.startStopMu.Lock()
	defer p.startStopMu.Unlock()

	p.log.Info("stopping")

	for _, t := range p.threads {
		t.cancel.Cancel()
	}

	if p.setAbortIOWaitEvent() {
		p.wg.Wait()
	} else {
		p.log.Error("failed to set abort event on stop")
	}

	p.threads = nil
	p.sessionsMu.Lock()
	p.sessions = nil
	p.sessionsMu.Unlock()

	_ = session.WSACloseEventHandle(p.abortEvent)

	if p.metrics != nil {
		p.metrics.PollingThreads.Set(0)
		p.metrics.RegisteredSessions.Set(0)
	}

	p.log.Info("stopped")
	return true
}

func (p *EventArrayProducer) Started() bool  { return p.started && !p.cancel.Cancelled() }
func (p *EventArrayProducer) CanStart() bool { return !p.started && !p.cancel.Cancelled() }

// Rearm is a no-op on the event-array platform: sessions are watched via
// manual-reset events the polling goroutine itself resets before
// enumerating.
func (p *EventArrayProducer) Rearm(*session.SessionInfo) {}

func (p *EventArrayProducer) setAbortIOWaitEvent() bool {
	p.abortMu.Lock()
	defer p.abortMu.Unlock()
	if p.abortEventSet {
		return true
	}
	if err := session.WSASetManualEvent(p.abortEvent); err != nil {
		p.log.Error("failed to set abort-IO-wait event", zap.Error(err))
		return false
	}
	p.abortEventSet = true
	return true
}

func (p *EventArrayProducer) resetAbortIOWaitEvent() bool {
	p.abortMu.Lock()
	defer p.abortMu.Unlock()
	if !p.abortEventSet {
		return true
	}
	if err := session.WSAResetManualEvent(p.abortEvent); err != nil {
		p.log.Error("failed to reset abort-IO-wait event", zap.Error(err))
		return false
	}
	p.abortEventSet = false
	return true
}

// waitForAllJoins blocks until every thread in threads has called
// setJoined, retrying up to maxJoinWaitAttempts timeouts before returning
// errJoinWaitExhausted, which UpdateSessions reports as a fatal error.
// This resolves SPEC_FULL.md's open question
// ("retry forever vs fail after N") in favor of a bounded retry: an
// unbounded wait would make a silently-dead polling goroutine hang
// UpdateSessions forever.
func waitForAllJoins(threads []*pollingThread) error {
	if len(threads) == 0 {
		return nil
	}

	for attempt := 0; attempt < maxJoinWaitAttempts; attempt++ {
		if allJoined(threads) {
			return nil
		}
		time.Sleep(pollingJoinTimeout)
		if allJoined(threads) {
			return nil
		}
	}

	return errJoinWaitExhausted
}

func allJoined(threads []*pollingThread) bool {
	for _, t := range threads {
		if !t.isJoined() {
			return false
		}
	}
	return true
}

// UpdateSessions executes the 7-step coordinator protocol described in
// SPEC_FULL.md 4.F2.
func (p *EventArrayProducer) UpdateSessions(newSessions, closedSessions []*session.SessionInfo) error {
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

	// Step 1: signal pause.
	p.waitTokenSource.Wait()

	// Step 2: unblock.
	if !p.setAbortIOWaitEvent() {
		return p.fatal(errAbortSetFailed)
	}

	// Step 3: wait for pause ack.
	if err := waitForAllJoins(p.threads); err != nil {
		return p.fatal(err)
	}

	// Step 4: mutate registry.
	p.sessionsMu.Lock()
	p.sessions = filterSessions(p.sessions, closedSessions)
	for _, added := range newSessions {
		if added.ConnectionState() != session.Connected {
			p.log.Error("refusing to register non-connected session", zap.Stringer("session", added))
			continue
		}
		p.sessions = append(p.sessions, added)
	}
	numSessions := len(p.sessions)
	p.sessionsMu.Unlock()

	// Step 5: recompute partition.
	plan := computePartition(numSessions, p.cfg.MaximumEventsPerPollingThread, p.cfg.MinimumPollingThreads)

	if plan.groups < len(p.threads) {
		retired := p.threads[plan.groups:]
		for _, t := range retired {
			t.cancel.Cancel()
		}
		p.threads = p.threads[:plan.groups]
	}

	// Step 6: update existing threads' offsets/counts, reset join state.
	for i, t := range p.threads {
		t.offset = plan.offsetForGroup(i)
		t.count = plan.socketsForGroup(i)
		t.resetJoined()
	}

	for i := len(p.threads); i < plan.groups; i++ {
		offset := plan.offsetForGroup(i)
		count := plan.socketsForGroup(i)
		p.spawnThread(p.nextThreadID, offset, count)
		p.nextThreadID++
	}

	if p.metrics != nil {
		p.metrics.PollingThreads.Set(float64(len(p.threads)))
		p.metrics.RegisteredSessions.Set(float64(numSessions))
	}

	p.log.Info("sessions updated", zap.Int("sessions", numSessions), zap.Int("polling_threads", len(p.threads)))

	// Step 7: resume.
	if !p.resetAbortIOWaitEvent() {
		return p.fatal(errAbortResetFailed)
	}

	p.waitTokenSource.Continue()

	if err := waitForAllJoins(p.threads); err != nil {
		return p.fatal(err)
	}
	for _, t := range p.threads {
		t.resetJoined()
	}

	return nil
}

func filterSessions(sessions, closed []*session.SessionInfo) []*session.SessionInfo {
	return lo.Filter(sessions, func(s *session.SessionInfo, _ int) bool {
		if s.ConnectionState() != session.Connected {
			return false
		}
		return !lo.ContainsBy(closed, func(c *session.SessionInfo) bool { return s.Equal(c) })
	})
}

func (p *EventArrayProducer) listenAndProduceEvents(t *pollingThread) {
	logPrefix := p.log.With(zap.Int("thread", t.id))
	logPrefix.Info("started")

	var (
		localSessions []*session.SessionInfo
		waitEvents    []windows.Handle
		refresh       = true
		synchronized  = false
	)

	cancelled := func() bool {
		if p.cancel.Cancelled() {
			return true
		}
		return t.cancel.Cancelled()
	}

	for !cancelled() {
		if refresh {
			refresh = false

			p.sessionsMu.Lock()
			end := t.offset + t.count
			if end > len(p.sessions) {
				end = len(p.sessions)
			}
			start := t.offset
			if start > end {
				start = end
			}
			localSessions = append([]*session.SessionInfo(nil), p.sessions[start:end]...)
			p.sessionsMu.Unlock()

			waitEvents = make([]windows.Handle, 0, len(localSessions)+1)
			waitEvents = append(waitEvents, p.abortEvent)
			for _, s := range localSessions {
				waitEvents = append(waitEvents, s.SocketEvent())
			}
		}

		if !synchronized {
			t.token.WaitUntilContinue()
			t.setJoined()
			synchronized = true
		}

		index, failed := waitMultiple(waitEvents, listenerIOWaitTimeout, p.abortAlreadySet, cancelled)
		if cancelled() {
			break
		}
		if failed {
			logPrefix.Error("WSAWaitForMultipleEvents failed")
			break
		}

		if index == 0 {
			// Pause path.
			t.setJoined()
			t.token.WaitUntilContinue()
			t.setJoined()
			refresh = true
			continue
		}
		if index >= len(waitEvents) {
			logPrefix.Error("WSAWaitForMultipleEvents returned an unknown index", zap.Int("index", index))
			continue
		}

		readable, closedBatch := p.drainSignaledEvents(waitEvents, localSessions)

		if len(readable) > 0 {
			p.raiseRead(readable)
		}
		if len(closedBatch) > 0 {
			p.raiseClosed(closedBatch)
		}
	}

	t.setJoined()
	logPrefix.Info("stopped")
}

func (p *EventArrayProducer) abortAlreadySet() bool {
	p.abortMu.Lock()
	defer p.abortMu.Unlock()
	return p.abortEventSet
}

// waitMultiple blocks on events (index 0 is always the abort event)
// until one signals, the timeout elapses, or cancelled reports true.
// Returns the signaled index and whether the underlying wait failed.
func waitMultiple(events []windows.Handle, timeout time.Duration, abortSet func() bool, cancelled func() bool) (int, bool) {
	for {
		idx := session.WSAWaitForMultipleEvents(events, false, uint32(timeout/time.Millisecond))
		if cancelled() {
			return 0, false
		}
		switch {
		case idx == session.WSAWaitFailed:
			return 0, true
		case idx == session.WSAWaitTimeout:
			if abortSet() {
				return 0, false
			}
			continue
		default:
			return int(idx), false
		}
	}
}

// drainSignaledEvents walks every local session (not just the one that
// woke the wait) enumerating its network events, matching the original's
// "loop through all sockets to save waiting for more notifications"
// strategy.
func (p *EventArrayProducer) drainSignaledEvents(waitEvents []windows.Handle, localSessions []*session.SessionInfo) (readable, closedBatch []*session.SessionInfo) {
	for i, s := range localSessions {
		eventIdx := i + 1 // index 0 is the abort event

		signaled := session.WSAWaitForMultipleEvents(waitEvents[eventIdx:eventIdx+1], true, 0)
		if signaled == session.WSAWaitFailed {
			continue
		}

		if s.ConnectionState() != session.Connected {
			continue
		}

		_ = session.WSAResetManualEvent(waitEvents[eventIdx])

		netEvents, err := s.EnumNetworkEvents()
		closeSocket := false
		if err != nil {
			closeSocket = true
		}

		switch {
		case !closeSocket && netEvents.NetworkEvents&session.FDRead != 0:
			readable = append(readable, s)
		case closeSocket || netEvents.NetworkEvents&session.FDClose != 0:
			s.SetAsDisconnected()
			closedBatch = append(closedBatch, s)
		}
	}
	return readable, closedBatch
}

var (
	errJoinWaitExhausted = errJoinTimeout{}
	errAbortSetFailed    = errAbortSet{}
	errAbortResetFailed  = errAbortReset{}
)

type errJoinTimeout struct{}

func (errJoinTimeout) Error() string {
	return "producer: timed out waiting for polling threads to acknowledge pause/resume"
}

type errAbortSet struct{}

func (errAbortSet) Error() string { return "producer: failed to set abort-IO-wait event" }

type errAbortReset struct{}

func (errAbortReset) Error() string { return "producer: failed to reset abort-IO-wait event" }

// File: cmd/sessiondemo/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A minimal TCP echo server exercising the session/producer core end to
// end: accept loop, SessionInfo registration, readable/closed fan-out,
// and one-shot rearm. Grounded on examples/lowlevel/echo/main.go's shape
// (flag-configured listener, periodic stats, signal-driven shutdown);
// the hioload-ws facade, middleware chain, and frame codec it wires are
// out of this core's scope, so this demo talks to net.Conn directly and
// treats a whole Read as one opaque session.Message.

package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/momentics/sessionmux/config"
	"github.com/momentics/sessionmux/metrics"
	"github.com/momentics/sessionmux/producer"
	"github.com/momentics/sessionmux/session"
)

func main() {
	addr := flag.String("addr", ":9001", "TCP listen address")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus /metrics listen address")
	configPath := flag.String("config", "", "optional config file (yaml/json/toml/ini/env; viper-backed)")
	flag.Parse()

	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintf(os.Stderr, "maxprocs: %v\n", err)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zap: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	prod, err := producer.New("sessiondemo", cfg, log)
	if err != nil {
		log.Fatal("producer construction failed", zap.Error(err))
	}
	prod.SetMetrics(metrics.NewProducer(reg, "sessiondemo"))

	d := newDemo(prod, log)
	prod.SubscribeToReadEvents(uuid.New(), d)
	prod.SubscribeToClosedEvents(uuid.New(), d)

	if ok, err := prod.Start(); err != nil {
		log.Fatal("producer start failed", zap.Error(err))
	} else if !ok {
		log.Fatal("producer did not start")
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal("listen failed", zap.Error(err))
	}
	log.Info("listening", zap.String("addr", *addr))

	go serveMetrics(*metricsAddr, reg, log)
	go d.acceptLoop(ln)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			log.Info("stats", zap.Int("active_sessions", d.sessionCount()))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	_ = ln.Close()
	prod.Stop()
	log.Info("stopped")
}

func loadConfig(path string) (producer.Config, error) {
	if path == "" {
		return config.Load(nil)
	}
	return config.NewFromFile(path)
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server stopped", zap.Error(err))
	}
}

// demo owns the accept loop and implements session.EventHandler for both
// the readable and closed subscriptions, using one handler for both like
// the echo example this command is patterned on.
type demo struct {
	prod producer.EventProducer
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session.SessionInfo
}

func newDemo(prod producer.EventProducer, log *zap.Logger) *demo {
	return &demo{
		prod:     prod,
		log:      log,
		sessions: make(map[uuid.UUID]*session.SessionInfo),
	}
}

func (d *demo) sessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

func (d *demo) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			d.log.Info("accept loop stopped", zap.Error(err))
			return
		}
		if err := d.register(conn); err != nil {
			d.log.Error("session registration failed", zap.Error(err))
			_ = conn.Close()
		}
	}
}

func (d *demo) register(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return fmt.Errorf("sessiondemo: non-TCP connection %T", conn)
	}

	ns, err := newNetSession(tcpConn)
	if err != nil {
		return fmt.Errorf("sessiondemo: %w", err)
	}

	info, err := session.NewSessionInfo(
		ns.UserName(), ns, session.Connected,
		session.ReceptionNotSupported, session.ProcessingNotSupported,
	)
	if err != nil {
		return fmt.Errorf("sessiondemo: %w", err)
	}

	if err := d.prod.UpdateSessions([]*session.SessionInfo{info}, nil); err != nil {
		_ = info.Close()
		return fmt.Errorf("sessiondemo: %w", err)
	}

	d.mu.Lock()
	d.sessions[info.ID()] = info
	d.mu.Unlock()

	d.log.Info("session connected", zap.Stringer("session", info))
	return nil
}

// HandleEvent fans out to handleReadable or handleClosed depending on
// each session's connection state (Disconnected goes to handleClosed),
// whichever subscription the batch arrived through; both producers invoke
// it synchronously on the polling goroutine, so neither path may block.
func (d *demo) HandleEvent(batch session.Batch) {
	for _, info := range batch {
		if info.ConnectionState() == session.Disconnected {
			d.handleClosed(info)
			continue
		}
		d.handleReadable(info)
	}
}

func (d *demo) handleReadable(info *session.SessionInfo) {
	msg, _, err := info.CommSession().ReceiveIncomingMessage()
	if err != nil {
		d.log.Debug("read failed, closing", zap.Stringer("session", info), zap.Error(err))
		info.SetAsDisconnected()
		d.handleClosed(info)
		return
	}

	info.IncrementMessagesWaitingToBeProcessed()
	info.CommSession().HandleRxMessage(msg)
	info.DecrementMessagesWaitingToBeProcessed()

	d.prod.Rearm(info)
}

func (d *demo) handleClosed(info *session.SessionInfo) {
	d.mu.Lock()
	_, ok := d.sessions[info.ID()]
	delete(d.sessions, info.ID())
	d.mu.Unlock()
	if !ok {
		return
	}

	info.CommSession().Disconnect(true)
	if err := d.prod.UpdateSessions(nil, []*session.SessionInfo{info}); err != nil {
		d.log.Error("deregistration failed", zap.Stringer("session", info), zap.Error(err))
	}
	if err := info.Close(); err != nil {
		d.log.Error("session close failed", zap.Stringer("session", info), zap.Error(err))
	}
	d.log.Info("session closed", zap.Stringer("session", info))
}

// netSession adapts a *net.TCPConn to session.Session. Byte framing is an
// out-of-scope collaborator (see session/session.go): each Read call's
// bytes are treated as one opaque message, which is enough to exercise
// the readable/closed fan-out without pulling in a real wire protocol.
type netSession struct {
	conn *net.TCPConn
	fd   session.SocketID
	name string

	refs atomic.Int32
}

func newNetSession(conn *net.TCPConn) (*netSession, error) {
	fd, err := socketFD(conn)
	if err != nil {
		return nil, err
	}
	return &netSession{
		conn: conn,
		fd:   fd,
		name: conn.RemoteAddr().String(),
	}, nil
}

func socketFD(conn *net.TCPConn) (session.SocketID, error) {
	sc, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd int
	ctrlErr := sc.Control(func(f uintptr) { fd = int(f) })
	if ctrlErr != nil {
		return 0, ctrlErr
	}
	return session.SocketID(fd), nil
}

func (ns *netSession) Socket() session.SocketID { return ns.fd }

func (ns *netSession) MessageReceptionMode() session.TaskExecutionMode {
	return session.ExecuteInline
}

func (ns *netSession) ReceiveIncomingMessage() (session.Message, session.TaskExecutionMode, error) {
	buf := make([]byte, 4096)
	n, err := ns.conn.Read(buf)
	if err != nil {
		return nil, session.ExecuteInline, err
	}
	return buf[:n], session.ExecuteInline, nil
}

func (ns *netSession) HandleRxMessage(msg session.Message) {
	data, ok := msg.([]byte)
	if !ok {
		return
	}
	_, _ = ns.conn.Write(data)
}

func (ns *netSession) Disconnect(socketWasClosed bool) {
	_ = ns.conn.Close()
}

func (ns *netSession) IncrementRefCount() int32 { return ns.refs.Inc() }
func (ns *netSession) DecrementRefCount() int32 { return ns.refs.Dec() }
func (ns *netSession) CurrentRefCount() int32   { return ns.refs.Load() }

func (ns *netSession) UserName() string { return ns.name }

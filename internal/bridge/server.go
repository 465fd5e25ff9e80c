package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/observability"
	"github.com/danmuck/railcan/internal/wire"
)

// ServerConfig selects where the bridge listens and how hard it polls the
// device between client activity.
type ServerConfig struct {
	// Name labels this bridge in logs and metrics.
	Name       string
	ListenAddr string
	// PollInterval is the device pump tick. Keep it small; the pump is
	// the bridge's only ingress path from the wire.
	PollInterval time.Duration
}

func DefaultServerConfig(listen string) ServerConfig {
	return ServerConfig{
		Name:         "bridge",
		ListenAddr:   listen,
		PollInterval: time.Millisecond,
	}
}

// Server owns one device and fans its frames out to TCP clients. Frames
// from clients go to the device only; clients hear each other the way bus
// nodes do, through whatever the medium reflects back.
type Server struct {
	cfg ServerConfig
	dev device.Device

	// devMu serializes device access between the pump and the per-client
	// readers; the device contract is single-borrower.
	devMu sync.Mutex

	mu    sync.Mutex
	conns map[net.Conn]*sync.Mutex // per-conn write lock
	ln    net.Listener
}

func NewServer(cfg ServerConfig, dev device.Device) *Server {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Millisecond
	}
	return &Server{cfg: cfg, dev: dev, conns: make(map[net.Conn]*sync.Mutex)}
}

// Listen binds the listener without serving, so callers can learn the
// bound address before starting clients.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("bridge: listen %q: %w", s.cfg.ListenAddr, err)
	}
	s.ln = ln
	logging.Infof("bridge.Listen name=%q addr=%v", s.cfg.Name, ln.Addr())
	return nil
}

// Addr reports the bound address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Run serves until ctx is done. It binds first if Listen was not called.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		s.ln.Close()
		s.closeAll()
		return nil
	})
	g.Go(func() error { return s.acceptLoop(ctx) })
	g.Go(func() error { return s.pumpDevice(ctx) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bridge: accept: %w", err)
		}
		s.addConn(conn)
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) addConn(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = &sync.Mutex{}
	n := len(s.conns)
	s.mu.Unlock()
	observability.SetBridgeClients(s.cfg.Name, n)
	logging.Debugf("bridge.addConn name=%q peer=%v clients=%d", s.cfg.Name, conn.RemoteAddr(), n)
}

func (s *Server) dropConn(conn net.Conn) {
	s.mu.Lock()
	_, live := s.conns[conn]
	delete(s.conns, conn)
	n := len(s.conns)
	s.mu.Unlock()
	if live {
		conn.Close()
		observability.SetBridgeClients(s.cfg.Name, n)
		logging.Debugf("bridge.dropConn name=%q peer=%v clients=%d", s.cfg.Name, conn.RemoteAddr(), n)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		s.dropConn(c)
	}
}

// serveConn reads frames from one client and keys them onto the device.
// A device with no transmit slot drops the frame; TCP gives the client no
// bus arbitration, so the bridge behaves like a saturated bus instead of
// exerting backpressure.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer s.dropConn(conn)
	br := bufio.NewReader(conn)
	var buf [wire.MaxFrameLen]byte
	for {
		n, err := readFrame(br, buf[:])
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				logging.Debugf("bridge.serveConn peer=%v closing: %v", conn.RemoteAddr(), err)
			}
			if errors.Is(err, ErrFraming) {
				observability.RecordBridgeDrop(s.cfg.Name, observability.DropBadFrame)
			}
			return
		}
		if !s.transmit(buf[:n]) {
			observability.RecordBridgeDrop(s.cfg.Name, observability.DropNoTransmit)
			logging.Tracef("bridge.serveConn no transmit slot, dropping %d-octet frame", n)
			continue
		}
		observability.RecordBridgeFrame(s.cfg.Name, observability.DirBusOut)
	}
}

func (s *Server) transmit(frame []byte) bool {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	tx, ok := s.dev.Transmit()
	if !ok {
		return false
	}
	err := tx.Consume(len(frame), func(buf []byte) error {
		copy(buf, frame)
		return nil
	})
	return err == nil
}

// pumpDevice drains received frames on a fixed tick and fans them out.
func (s *Server) pumpDevice(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	var frame [wire.MaxFrameLen]byte
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		start := time.Now()
		for {
			n, ok := s.receive(frame[:])
			if !ok {
				break
			}
			s.broadcast(frame[:n])
			observability.RecordBridgeFrame(s.cfg.Name, observability.DirBusIn)
		}
		observability.RecordDevicePoll(s.cfg.Name, time.Since(start))
	}
}

func (s *Server) receive(buf []byte) (int, bool) {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	rx, _, ok := s.dev.Receive()
	if !ok {
		return 0, false
	}
	n := 0
	rx.Consume(func(b []byte) {
		n = copy(buf, b)
	})
	return n, true
}

// broadcast writes one frame to every client. A client that cannot be
// written to is dropped; a stalled reader must not stall the bus.
func (s *Server) broadcast(frame []byte) {
	s.mu.Lock()
	conns := make(map[net.Conn]*sync.Mutex, len(s.conns))
	for c, l := range s.conns {
		conns[c] = l
	}
	s.mu.Unlock()
	for conn, lock := range conns {
		lock.Lock()
		err := writeFrame(conn, frame)
		lock.Unlock()
		if err != nil {
			observability.RecordBridgeDrop(s.cfg.Name, observability.DropSlowClient)
			logging.Debugf("bridge.broadcast peer=%v write failed: %v", conn.RemoteAddr(), err)
			s.dropConn(conn)
		}
	}
}

package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	retry "github.com/avast/retry-go"

	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/wire"
)

var ErrClientClosed = errors.New("bridge: client closed")

// clientRxQueueCap bounds frames buffered between the stream reader and
// the polling interface. Overflow drops the oldest-pending frame's
// successor, the same policy every device driver carries.
const clientRxQueueCap = 30

// ClientConfig selects the bridge endpoint.
type ClientConfig struct {
	Addr         string
	DialAttempts uint
}

func DefaultClientConfig(addr string) ClientConfig {
	return ClientConfig{Addr: addr, DialAttempts: 3}
}

// Client is a device.Device backed by a bridge server. A background
// reader pumps the stream into a bounded queue; the Device surface stays
// non-blocking, so an Interface can poll it like local hardware.
type Client struct {
	cfg  ClientConfig
	conn net.Conn

	rx     chan []byte
	done   chan struct{}
	closed atomic.Bool

	writeMu sync.Mutex
}

// Dial connects to a bridge server and starts the stream reader. Dials
// are retried; bridges restart independently of their nodes.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.DialAttempts == 0 {
		cfg.DialAttempts = 3
	}
	var conn net.Conn
	dialer := &net.Dialer{}
	err := retry.Do(func() error {
		c, err := dialer.DialContext(ctx, "tcp", cfg.Addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(cfg.DialAttempts),
		retry.OnRetry(func(n uint, err error) {
			logging.Warnf("bridge.Dial retry addr=%q attempt=%d err=%v", cfg.Addr, n+1, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %q: %w", cfg.Addr, err)
	}
	c := &Client{
		cfg:  cfg,
		conn: conn,
		rx:   make(chan []byte, clientRxQueueCap),
		done: make(chan struct{}),
	}
	go c.readLoop()
	logging.Infof("bridge.Dial connected addr=%q local=%v", cfg.Addr, conn.LocalAddr())
	return c, nil
}

func (c *Client) readLoop() {
	br := bufio.NewReader(c.conn)
	var buf [wire.MaxFrameLen]byte
	for {
		n, err := readFrame(br, buf[:])
		if err != nil {
			if !c.closed.Load() {
				logging.Warnf("bridge.readLoop addr=%q stream ended: %v", c.cfg.Addr, err)
				c.Close()
			}
			return
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		select {
		case c.rx <- frame:
		default:
			logging.Tracef("bridge.readLoop rx queue full, dropping %d-octet frame", n)
		}
	}
}

func (c *Client) Capabilities() device.Capabilities {
	return device.CanCapabilities()
}

func (c *Client) Receive() (device.RxToken, device.TxToken, bool) {
	select {
	case frame := <-c.rx:
		return clientRxToken{buf: frame}, clientTxToken{c: c}, true
	default:
		return nil, nil, false
	}
}

func (c *Client) Transmit() (device.TxToken, bool) {
	if c.closed.Load() {
		return nil, false
	}
	return clientTxToken{c: c}, true
}

// Close shuts the stream down. Safe to call twice; the reader calls it on
// a broken stream.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	return c.conn.Close()
}

// Done is closed once the client shuts down, however that happened.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

type clientRxToken struct {
	buf []byte
}

func (t clientRxToken) Consume(f func(buf []byte)) {
	f(t.buf)
}

type clientTxToken struct {
	c *Client
}

func (t clientTxToken) Consume(length int, f func(buf []byte) error) error {
	if t.c.closed.Load() {
		return ErrClientClosed
	}
	buf := make([]byte, length)
	if err := f(buf); err != nil {
		return err
	}
	t.c.writeMu.Lock()
	defer t.c.writeMu.Unlock()
	if err := writeFrame(t.c.conn, buf); err != nil {
		return fmt.Errorf("bridge: transmit: %w", err)
	}
	return nil
}

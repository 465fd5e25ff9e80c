package device

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go"
	"go.bug.st/serial"

	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/vlcb"
	"github.com/danmuck/railcan/internal/wire"
)

var (
	ErrPortClosed  = errors.New("device: serial port closed")
	ErrTxQueueFull = errors.New("device: transmit queue full")
	ErrBadLine     = errors.New("device: malformed slcan line")
	ErrBitrate     = errors.New("device: unsupported bus bitrate")
)

// slcanBitrates maps kbit/s to the Lawicel setup command.
var slcanBitrates = map[int]string{
	10: "S0", 20: "S1", 50: "S2", 100: "S3", 125: "S4",
	250: "S5", 500: "S6", 750: "S7", 1000: "S8",
}

const (
	slcanRxQueueCap = 30
	slcanTxQueueCap = 10
)

// SLCANConfig selects the serial port and bus parameters.
type SLCANConfig struct {
	Port         string
	PortBaudrate int
	BusKbit      int
	OpenAttempts uint
}

func DefaultSLCANConfig(port string) SLCANConfig {
	return SLCANConfig{
		Port:         port,
		PortBaudrate: 115200,
		BusKbit:      125,
		OpenAttempts: 3,
	}
}

// SLCAN drives a Lawicel-protocol serial CAN adapter. Reader and writer
// goroutines pump the port; the Device surface stays non-blocking.
type SLCAN struct {
	cfg  SLCANConfig
	port serial.Port

	rx     chan []byte
	tx     chan []byte
	done   chan struct{}
	closed atomic.Bool
}

func NewSLCAN(cfg SLCANConfig) *SLCAN {
	if cfg.PortBaudrate == 0 {
		cfg.PortBaudrate = 115200
	}
	if cfg.BusKbit == 0 {
		cfg.BusKbit = 125
	}
	if cfg.OpenAttempts == 0 {
		cfg.OpenAttempts = 3
	}
	return &SLCAN{
		cfg:  cfg,
		rx:   make(chan []byte, slcanRxQueueCap),
		tx:   make(chan []byte, slcanTxQueueCap),
		done: make(chan struct{}),
	}
}

// Open claims the port, configures the adapter, and starts the pumps.
// USB adapters flake right after plug-in, so the open is retried.
func (d *SLCAN) Open(ctx context.Context) error {
	rateCmd, ok := slcanBitrates[d.cfg.BusKbit]
	if !ok {
		return fmt.Errorf("%w: %d kbit/s", ErrBitrate, d.cfg.BusKbit)
	}

	mode := &serial.Mode{
		BaudRate: d.cfg.PortBaudrate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	var port serial.Port
	err := retry.Do(func() error {
		p, err := serial.Open(d.cfg.Port, mode)
		if err != nil {
			return err
		}
		port = p
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(d.cfg.OpenAttempts),
		retry.OnRetry(func(n uint, err error) {
			logging.Warnf("device.slcan open retry port=%q attempt=%d err=%v", d.cfg.Port, n+1, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("device: open %q: %w", d.cfg.Port, err)
	}

	if err := port.SetReadTimeout(time.Millisecond); err != nil {
		port.Close()
		return fmt.Errorf("device: read timeout on %q: %w", d.cfg.Port, err)
	}
	port.ResetInputBuffer()
	port.ResetOutputBuffer()

	if _, err := port.Write([]byte(rateCmd + "\r")); err != nil {
		port.Close()
		return fmt.Errorf("device: set bitrate: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := port.Write([]byte("O\r")); err != nil {
		port.Close()
		return fmt.Errorf("device: open channel: %w", err)
	}

	d.port = port
	go d.readPump()
	go d.writePump()
	logging.Infof("device.slcan opened port=%q baud=%d bus=%dk", d.cfg.Port, d.cfg.PortBaudrate, d.cfg.BusKbit)
	return nil
}

// Close shuts the adapter channel and releases the port.
func (d *SLCAN) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	close(d.done)
	if d.port == nil {
		return nil
	}
	time.Sleep(10 * time.Millisecond)
	d.port.Write([]byte("C\r"))
	time.Sleep(10 * time.Millisecond)
	return d.port.Close()
}

func (d *SLCAN) Capabilities() Capabilities {
	return CanCapabilities()
}

func (d *SLCAN) Receive() (RxToken, TxToken, bool) {
	select {
	case buf := <-d.rx:
		return slcanRxToken{buf: buf}, slcanTxToken{dev: d}, true
	default:
		return nil, nil, false
	}
}

func (d *SLCAN) Transmit() (TxToken, bool) {
	if d.closed.Load() || len(d.tx) >= slcanTxQueueCap {
		return nil, false
	}
	return slcanTxToken{dev: d}, true
}

type slcanRxToken struct {
	buf []byte
}

func (t slcanRxToken) Consume(f func(buf []byte)) {
	f(t.buf)
}

type slcanTxToken struct {
	dev *SLCAN
}

func (t slcanTxToken) Consume(length int, f func(buf []byte) error) error {
	if t.dev.closed.Load() {
		return ErrPortClosed
	}
	buf := make([]byte, length)
	if err := f(buf); err != nil {
		return err
	}
	select {
	case t.dev.tx <- buf:
		return nil
	default:
		return ErrTxQueueFull
	}
}

func (d *SLCAN) readPump() {
	line := make([]byte, 0, 32)
	readBuffer := make([]byte, 64)
	for {
		select {
		case <-d.done:
			return
		default:
		}
		n, err := d.port.Read(readBuffer)
		if err != nil {
			if !d.closed.Load() {
				logging.Errf("device.slcan read port=%q err=%v", d.cfg.Port, err)
			}
			return
		}
		if n == 0 {
			continue
		}
		for _, b := range readBuffer[:n] {
			if b != 0x0D {
				line = append(line, b)
				continue
			}
			if len(line) > 0 {
				d.handleLine(line)
				line = line[:0]
			}
		}
	}
}

func (d *SLCAN) writePump() {
	for {
		select {
		case buf := <-d.tx:
			cmd, err := encodeSlcanFrame(buf)
			if err != nil {
				logging.Tracef("device.slcan encode err=%v", err)
				continue
			}
			if _, err := d.port.Write(cmd); err != nil {
				if !d.closed.Load() {
					logging.Errf("device.slcan write port=%q err=%v", d.cfg.Port, err)
				}
				return
			}
		case <-d.done:
			return
		}
	}
}

func (d *SLCAN) handleLine(line []byte) {
	switch line[0] {
	case 't', 'r':
		frame, err := decodeSlcanLine(line)
		if err != nil {
			logging.Tracef("device.slcan decode line=%q err=%v", line, err)
			return
		}
		select {
		case d.rx <- frame:
		default:
			logging.Tracef("device.slcan rx queue full, dropping frame")
		}
	case 'F':
		logging.Warnf("device.slcan adapter status line=%q", line)
	case 0x07: // bell, adapter rejected the last command
		logging.Warnf("device.slcan adapter rejected command")
	default:
		logging.Tracef("device.slcan ignoring line=%q", line)
	}
}

// decodeSlcanLine converts one Lawicel t/r line into header+payload wire
// form. The 11-bit arbitration field carries the header's low bits; RTR
// travels as the line type, not as an id bit.
func decodeSlcanLine(line []byte) ([]byte, error) {
	if len(line) < 5 {
		return nil, fmt.Errorf("%w: %d octets", ErrBadLine, len(line))
	}
	rtr := line[0] == 'r'
	id, err := strconv.ParseUint(string(line[1:4]), 16, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", ErrBadLine, line[1:4])
	}
	dlen, err := strconv.Atoi(string(line[4:5]))
	if err != nil || dlen < 0 || dlen > wire.MaxFramePayload {
		return nil, fmt.Errorf("%w: dlc %q", ErrBadLine, line[4:5])
	}

	var data []byte
	if !rtr {
		data, err = hex.DecodeString(string(line[5:]))
		if err != nil || len(data) != dlen {
			return nil, fmt.Errorf("%w: data %q", ErrBadLine, line[5:])
		}
	}

	buf := make([]byte, wire.FrameHeaderLen+len(data))
	f := wire.NewFrame(buf)
	f.SetID(vlcb.NewCanID(uint8(id)))
	f.SetPriority(wire.Priority(id >> 7 & 0x3))
	f.SetRTR(rtr)
	copy(f.Payload(), data)
	return buf, nil
}

// encodeSlcanFrame converts header+payload wire form into a Lawicel line.
func encodeSlcanFrame(buf []byte) ([]byte, error) {
	f, err := wire.NewCheckedFrame(buf)
	if err != nil {
		return nil, err
	}
	id := uint16(f.ID()) | uint16(f.Priority())<<7
	payload := f.Payload()
	if f.RTR() {
		return []byte(fmt.Sprintf("r%03X%d\r", id, len(payload))), nil
	}
	return []byte(fmt.Sprintf("t%03X%d%s\r", id, len(payload),
		strings.ToUpper(hex.EncodeToString(payload)))), nil
}

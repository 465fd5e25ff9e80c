package device

import "github.com/danmuck/railcan/internal/logging"

// loopbackQueueCap bounds the in-flight frame queue.
const loopbackQueueCap = 16

// Loopback is a device that hands every transmitted frame back as a
// received one. It backs tests and the demo runtime; nothing about the
// stack above it knows the difference.
type Loopback struct {
	queue [][]byte
}

func NewLoopback() *Loopback {
	return &Loopback{queue: make([][]byte, 0, loopbackQueueCap)}
}

func (d *Loopback) Capabilities() Capabilities {
	return CanCapabilities()
}

func (d *Loopback) Receive() (RxToken, TxToken, bool) {
	if len(d.queue) == 0 {
		return nil, nil, false
	}
	buf := d.queue[0]
	d.queue = d.queue[1:]
	return loopbackRxToken{buf: buf}, loopbackTxToken{dev: d}, true
}

func (d *Loopback) Transmit() (TxToken, bool) {
	if len(d.queue) >= loopbackQueueCap {
		return nil, false
	}
	return loopbackTxToken{dev: d}, true
}

type loopbackRxToken struct {
	buf []byte
}

func (t loopbackRxToken) Consume(f func(buf []byte)) {
	f(t.buf)
}

type loopbackTxToken struct {
	dev *Loopback
}

func (t loopbackTxToken) Consume(length int, f func(buf []byte) error) error {
	buf := make([]byte, length)
	if err := f(buf); err != nil {
		return err
	}
	if len(t.dev.queue) >= loopbackQueueCap {
		// the paired reply token can race the cap; drop like a real bus
		logging.Tracef("device.loopback queue full, dropping %d-octet frame", length)
		return nil
	}
	t.dev.queue = append(t.dev.queue, buf)
	return nil
}

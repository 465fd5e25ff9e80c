package socket

import (
	"errors"
	"fmt"

	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/storage"
	"github.com/danmuck/railcan/internal/wire"
)

// packetQueue is the rx/tx core both socket kinds share. Queued entries
// are whole packets, lead octet included, so a dequeued entry is ready for
// the wire and a received entry is ready for the packet codec.
type packetQueue struct {
	kind Kind
	rx   *storage.PacketBuffer
	tx   *storage.PacketBuffer
}

// CanSend reports whether the send queue has a free packet slot.
func (q *packetQueue) CanSend() bool {
	return !q.tx.Full()
}

// CanRecv reports whether a received packet is waiting.
func (q *packetQueue) CanRecv() bool {
	return !q.rx.Empty()
}

// maxPacketOctets bounds one queued packet: a lead octet plus the largest
// payload a single frame carries.
const maxPacketOctets = wire.PacketHeaderLen + wire.MaxPacketPayload

// Send reserves a size-octet outbound packet window for the caller to
// fill. The window belongs to the queue and must be fully written before
// the next poll.
func (q *packetQueue) Send(size int) ([]byte, error) {
	if size > maxPacketOctets {
		return nil, fmt.Errorf("%w: %d octets, max %d", ErrTooLarge, size, maxPacketOctets)
	}
	w, err := q.tx.Enqueue(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferFull, err)
	}
	return w, nil
}

// SendSlice copies one complete packet into the send queue.
func (q *packetQueue) SendSlice(pkt []byte) error {
	w, err := q.Send(len(pkt))
	if err != nil {
		return err
	}
	copy(w, pkt)
	return nil
}

// SendWith reserves up to maxSize octets and lets fn build the packet in
// place, returning the built size. fn's error cancels the send.
func (q *packetQueue) SendWith(maxSize int, fn func(buf []byte) (int, error)) (int, error) {
	if maxSize > maxPacketOctets {
		return 0, fmt.Errorf("%w: %d octets, max %d", ErrTooLarge, maxSize, maxPacketOctets)
	}
	n, err := q.tx.EnqueueWith(maxSize, fn)
	if err != nil {
		if errors.Is(err, storage.ErrFull) {
			return 0, fmt.Errorf("%w: %v", ErrBufferFull, err)
		}
		return 0, err
	}
	return n, nil
}

// Recv removes the oldest received packet and returns its octets. The
// window stays valid until the next poll touches this socket.
func (q *packetQueue) Recv() ([]byte, error) {
	pkt, err := q.rx.Dequeue()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExhausted, err)
	}
	return pkt, nil
}

// RecvSlice copies the oldest received packet into dst. A short dst drops
// the packet: a partial protocol packet is useless and holding it would
// wedge the queue.
func (q *packetQueue) RecvSlice(dst []byte) (int, error) {
	pkt, err := q.rx.Dequeue()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExhausted, err)
	}
	if len(dst) < len(pkt) {
		logging.Tracef("socket.RecvSlice kind=%v dropped packet len=%d dst=%d", q.kind, len(pkt), len(dst))
		return 0, fmt.Errorf("%w: packet %d octets, dst %d", ErrTruncated, len(pkt), len(dst))
	}
	return copy(dst, pkt), nil
}

// Peek returns the oldest received packet without consuming it.
func (q *packetQueue) Peek() ([]byte, error) {
	pkt, err := q.rx.Peek()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExhausted, err)
	}
	return pkt, nil
}

// PeekSlice copies without consuming. A short dst errors but the packet
// stays queued; only a consuming read may drop.
func (q *packetQueue) PeekSlice(dst []byte) (int, error) {
	pkt, err := q.Peek()
	if err != nil {
		return 0, err
	}
	if len(dst) < len(pkt) {
		return 0, fmt.Errorf("%w: packet %d octets, dst %d", ErrTruncated, len(pkt), len(dst))
	}
	return copy(dst, pkt), nil
}

// process copies one inbound packet, lead octet first, into rx. Overflow
// is the bus outpacing the application; the packet drops here and the
// trace is the only witness.
func (q *packetQueue) process(p wire.Packet) {
	pkt := p.Bytes()
	w, err := q.rx.Enqueue(len(pkt))
	if err != nil {
		logging.Tracef("socket.process kind=%v rx overflow, dropping op=%v err=%v", q.kind, p.Opcode(), err)
		return
	}
	copy(w, pkt)
}

// dispatch offers the oldest queued packet to emit, consuming it only on
// success so device exhaustion retries the same packet next pass.
func (q *packetQueue) dispatch(emit func(pkt []byte) error) error {
	pkt, err := q.tx.Peek()
	if err != nil {
		return nil
	}
	if err := emit(pkt); err != nil {
		return err
	}
	if _, err := q.tx.Dequeue(); err != nil {
		panic(fmt.Sprintf("socket: peeked packet vanished: %v", err))
	}
	return nil
}

func (q *packetQueue) sendQueueEmpty() bool {
	return q.tx.Empty()
}

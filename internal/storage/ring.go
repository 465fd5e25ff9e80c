// Package storage owns the bounded packet queues the socket layer runs on.
//
// Ownership boundary:
// - fixed-capacity packet rings over caller-supplied arrays
//
// Nothing here allocates after construction and nothing here grows. A full
// ring reports full; the caller decides whether that drops or backpressures.
package storage

import (
	"errors"
	"fmt"
)

var (
	ErrFull  = errors.New("storage: buffer full")
	ErrEmpty = errors.New("storage: buffer empty")
)

// PacketMetadata is one slot descriptor. Padding slots keep packets
// contiguous in the byte ring when a packet would otherwise wrap.
type PacketMetadata struct {
	size    int
	padding bool
}

// PacketBuffer is a bounded FIFO of variable-size packets. Slot count and
// byte capacity both bound it; whichever runs out first makes it full.
type PacketBuffer struct {
	meta    []PacketMetadata
	metaAt  int
	metaLen int

	payload   []byte
	payloadAt int
	bytesUsed int

	packets int
}

// NewPacketBuffer wraps caller-supplied slot and byte storage. The buffer
// never resizes either array.
func NewPacketBuffer(meta []PacketMetadata, payload []byte) *PacketBuffer {
	return &PacketBuffer{meta: meta, payload: payload}
}

// Reset drops everything queued without touching the backing arrays.
func (b *PacketBuffer) Reset() {
	b.metaAt, b.metaLen = 0, 0
	b.payloadAt, b.bytesUsed = 0, 0
	b.packets = 0
}

// Empty reports whether no packets are queued.
func (b *PacketBuffer) Empty() bool {
	return b.packets == 0
}

// Full reports whether the slot ring cannot take another packet. Byte
// exhaustion is size-dependent and surfaces from Enqueue instead.
func (b *PacketBuffer) Full() bool {
	return b.metaLen >= len(b.meta)
}

// PacketCount returns the number of queued packets, padding excluded.
func (b *PacketBuffer) PacketCount() int {
	return b.packets
}

// PacketCapacity returns the slot bound.
func (b *PacketBuffer) PacketCapacity() int {
	return len(b.meta)
}

// PayloadCapacity returns the byte bound.
func (b *PacketBuffer) PayloadCapacity() int {
	return len(b.payload)
}

func (b *PacketBuffer) bytesFree() int {
	return len(b.payload) - b.bytesUsed
}

func (b *PacketBuffer) writeAt() int {
	return b.wrap(b.payloadAt + b.bytesUsed)
}

func (b *PacketBuffer) wrap(i int) int {
	if len(b.payload) == 0 {
		return 0
	}
	return i % len(b.payload)
}

func (b *PacketBuffer) pushMeta(m PacketMetadata) {
	b.meta[(b.metaAt+b.metaLen)%len(b.meta)] = m
	b.metaLen++
}

func (b *PacketBuffer) popMeta() PacketMetadata {
	m := b.meta[b.metaAt]
	b.metaAt = (b.metaAt + 1) % len(b.meta)
	b.metaLen--
	return m
}

// dropPadding consumes leading padding slots so the next real packet sits
// at the byte ring's read position.
func (b *PacketBuffer) dropPadding() {
	for b.metaLen > 0 && b.meta[b.metaAt].padding {
		pad := b.popMeta()
		b.payloadAt = b.wrap(b.payloadAt + pad.size)
		b.bytesUsed -= pad.size
	}
}

// Enqueue reserves a contiguous size-octet window at the tail and returns
// it for the caller to fill. The window is owned by the queue; it stays
// valid until the packet is dequeued.
func (b *PacketBuffer) Enqueue(size int) ([]byte, error) {
	if size < 0 {
		panic(fmt.Sprintf("storage: negative enqueue size %d", size))
	}
	if size > len(b.payload) {
		return nil, fmt.Errorf("%w: %d octets exceed ring capacity %d", ErrFull, size, len(b.payload))
	}
	if b.metaLen >= len(b.meta) {
		return nil, fmt.Errorf("%w: %d packet slots in use", ErrFull, b.metaLen)
	}
	if b.bytesFree() < size {
		return nil, fmt.Errorf("%w: %d free octets, need %d", ErrFull, b.bytesFree(), size)
	}

	at := b.writeAt()
	if contig := len(b.payload) - at; contig < size {
		// pad out to the array edge so the packet stays contiguous
		if b.bytesFree() < contig+size || len(b.meta)-b.metaLen < 2 {
			return nil, fmt.Errorf("%w: wrap padding does not fit", ErrFull)
		}
		b.pushMeta(PacketMetadata{size: contig, padding: true})
		b.bytesUsed += contig
		at = 0
	}

	b.pushMeta(PacketMetadata{size: size})
	b.bytesUsed += size
	b.packets++
	return b.payload[at : at+size], nil
}

// EnqueueWith reserves up to maxSize octets and lets fn fill them. fn
// returns how many octets it used; the packet is recorded at that size and
// the rest returns to the free pool. An error from fn cancels the whole
// enqueue. Wrap padding, if any was needed, stays in place either way.
func (b *PacketBuffer) EnqueueWith(maxSize int, fn func(buf []byte) (int, error)) (int, error) {
	w, err := b.Enqueue(maxSize)
	if err != nil {
		return 0, err
	}
	n, err := fn(w)
	if err != nil {
		b.cancelLast(maxSize)
		return 0, err
	}
	if n < 0 || n > maxSize {
		panic(fmt.Sprintf("storage: writer used %d of %d octets", n, maxSize))
	}
	b.shrinkLast(maxSize, n)
	return n, nil
}

func (b *PacketBuffer) lastMeta() *PacketMetadata {
	return &b.meta[(b.metaAt+b.metaLen-1)%len(b.meta)]
}

func (b *PacketBuffer) shrinkLast(from, to int) {
	b.lastMeta().size = to
	b.bytesUsed -= from - to
}

func (b *PacketBuffer) cancelLast(size int) {
	b.metaLen--
	b.bytesUsed -= size
	b.packets--
}

// Dequeue removes the oldest packet and returns its octets. The returned
// window stays valid until the next Enqueue reuses the space.
func (b *PacketBuffer) Dequeue() ([]byte, error) {
	b.dropPadding()
	if b.metaLen == 0 {
		return nil, ErrEmpty
	}
	m := b.popMeta()
	at := b.payloadAt
	b.payloadAt = b.wrap(at + m.size)
	b.bytesUsed -= m.size
	b.packets--
	return b.payload[at : at+m.size], nil
}

// Peek returns the oldest packet without removing it.
func (b *PacketBuffer) Peek() ([]byte, error) {
	b.dropPadding()
	if b.metaLen == 0 {
		return nil, ErrEmpty
	}
	m := b.meta[b.metaAt]
	return b.payload[b.payloadAt : b.payloadAt+m.size], nil
}

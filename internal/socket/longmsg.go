package socket

import (
	"time"

	"github.com/danmuck/railcan/internal/storage"
	"github.com/danmuck/railcan/internal/wire"
)

// LongMsg queues long-message transfer chunks. Today it hands the raw
// chunks through; stream reassembly sits behind the deadline hook below.
type LongMsg struct {
	packetQueue

	// reassembly timeout for a stream left half-received. Zero means no
	// stream is open. TODO(reassembly): drive this from DTXC stream
	// headers once chunk sequencing is implemented.
	deadline time.Time
}

// NewLongMsg builds a long-message socket over caller-supplied storage.
func NewLongMsg(rx, tx *storage.PacketBuffer) *LongMsg {
	return &LongMsg{packetQueue: packetQueue{kind: KindLongMsg, rx: rx, tx: tx}}
}

func (s *LongMsg) Kind() Kind {
	return KindLongMsg
}

func (s *LongMsg) Process(p wire.Packet) {
	s.process(p)
}

func (s *LongMsg) Dispatch(emit func(pkt []byte) error) error {
	return s.dispatch(emit)
}

// SetReassemblyDeadline arms the stream-abandonment timer.
func (s *LongMsg) SetReassemblyDeadline(t time.Time) {
	s.deadline = t
}

// PollAt reports Now while chunks wait to send, the reassembly deadline
// while a stream is open, and Ingress otherwise.
func (s *LongMsg) PollAt() PollAt {
	if !s.sendQueueEmpty() {
		return Now()
	}
	if !s.deadline.IsZero() {
		return At(s.deadline)
	}
	return OnIngress()
}

func (s *LongMsg) sealed() {}

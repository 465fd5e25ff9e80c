package socket

import (
	"github.com/danmuck/railcan/internal/storage"
	"github.com/danmuck/railcan/internal/wire"
)

// Module is the general-purpose socket kind: every recognized opcode that
// is not a long-message chunk lands here.
type Module struct {
	packetQueue
}

// NewModule builds a module socket over caller-supplied queue storage.
func NewModule(rx, tx *storage.PacketBuffer) *Module {
	return &Module{packetQueue{kind: KindModule, rx: rx, tx: tx}}
}

func (s *Module) Kind() Kind {
	return KindModule
}

func (s *Module) Process(p wire.Packet) {
	s.process(p)
}

func (s *Module) Dispatch(emit func(pkt []byte) error) error {
	return s.dispatch(emit)
}

// PollAt reports Now while outbound packets wait, Ingress otherwise.
func (s *Module) PollAt() PollAt {
	if !s.sendQueueEmpty() {
		return Now()
	}
	return OnIngress()
}

func (s *Module) sealed() {}

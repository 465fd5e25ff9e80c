package socket

import (
	"fmt"

	"github.com/danmuck/railcan/internal/wire"
)

// Kind tags each member of the closed socket set.
type Kind uint8

const (
	KindModule Kind = iota
	KindLongMsg
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindLongMsg:
		return "longmsg"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Socket is the closed set of socket kinds. Only this package implements
// it; new kinds are added here, next to the dispatch sites that must learn
// about them.
type Socket interface {
	Kind() Kind

	// Process ingests one inbound packet. Overflow drops the packet and
	// traces; it never propagates.
	Process(p wire.Packet)

	// Dispatch offers the oldest queued outbound packet to emit. An emit
	// error leaves the packet queued and is returned unchanged. An empty
	// queue is not an error.
	Dispatch(emit func(pkt []byte) error) error

	// PollAt tells the owning interface when to come back.
	PollAt() PollAt

	sealed()
}

// ModuleOf downcasts within the closed set.
func ModuleOf(s Socket) (*Module, bool) {
	m, ok := s.(*Module)
	return m, ok
}

// LongMsgOf downcasts within the closed set.
func LongMsgOf(s Socket) (*LongMsg, bool) {
	l, ok := s.(*LongMsg)
	return l, ok
}

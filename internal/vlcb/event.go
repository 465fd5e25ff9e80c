package vlcb

import (
	"encoding/binary"
	"fmt"
)

// EventType splits the taught-event space into its two polarities.
type EventType uint8

const (
	EventOn EventType = iota
	EventOff
)

func (t EventType) String() string {
	switch t {
	case EventOn:
		return "on"
	case EventOff:
		return "off"
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

// EventID identifies one layout event: producing node number plus event
// number. Short events carry no node part; Short participates in equality,
// so a short event never compares equal to a long one with the same bytes.
type EventID struct {
	Node  NodeNumber
	Index uint16
	Short bool
}

// NewEventID builds an event id. Short ids normalize the node part to zero
// so identity stays byte-derived.
func NewEventID(node NodeNumber, index uint16, short bool) EventID {
	if short {
		node = 0
	}
	return EventID{Node: node, Index: index, Short: short}
}

// EventIDFromBytes parses a long event id from its 4-octet wire form.
func EventIDFromBytes(b [4]byte) EventID {
	return EventID{
		Node:  NodeNumber(binary.BigEndian.Uint16(b[0:2])),
		Index: binary.BigEndian.Uint16(b[2:4]),
	}
}

// ShortEventIDFromBytes parses a short event id, ignoring the node octets.
func ShortEventIDFromBytes(b [4]byte) EventID {
	return EventID{
		Index: binary.BigEndian.Uint16(b[2:4]),
		Short: true,
	}
}

func (e EventID) Bytes() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint16(b[0:2], uint16(e.Node))
	binary.BigEndian.PutUint16(b[2:4], e.Index)
	return b
}

func (e EventID) String() string {
	if e.Short {
		return fmt.Sprintf("ev:short:%d", e.Index)
	}
	return fmt.Sprintf("ev:%d:%d", uint16(e.Node), e.Index)
}

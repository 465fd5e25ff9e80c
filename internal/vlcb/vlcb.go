package vlcb

import (
	"encoding/binary"
	"fmt"
)

// CanIDMask keeps arbitration ids inside the 7-bit standard-frame range.
const CanIDMask uint8 = 0x7F

// CanID is the 7-bit bus arbitration id. It orders frames on the wire and
// is assigned per segment; it never identifies a node to the layout.
type CanID uint8

// NewCanID masks raw down to the 7-bit range. Out-of-range input is a
// caller bug the bus cannot represent, so the constructor silently clamps.
func NewCanID(raw uint8) CanID {
	return CanID(raw & CanIDMask)
}

func (id CanID) String() string {
	return fmt.Sprintf("can:%d", uint8(id))
}

// NodeNumber is the 2-octet layout-wide node address. Zero means the node
// has not been allocated a number yet.
type NodeNumber uint16

func NodeNumberFromBytes(b [2]byte) NodeNumber {
	return NodeNumber(binary.BigEndian.Uint16(b[:]))
}

func (n NodeNumber) Bytes() [2]byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(n))
	return b
}

// Unassigned reports whether the node still runs without a layout address.
func (n NodeNumber) Unassigned() bool {
	return n == 0
}

func (n NodeNumber) String() string {
	return fmt.Sprintf("nn:%d", uint16(n))
}

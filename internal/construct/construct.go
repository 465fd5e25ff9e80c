// Package construct builds protocol packets from typed arguments. Every
// builder returns a finished packet, lead octet included, sized for a
// socket send queue.
package construct

import (
	"errors"
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
	"github.com/danmuck/railcan/internal/wire"
)

var (
	// ErrBadLength rejects variable payloads outside a builder's range.
	ErrBadLength = errors.New("construct: payload length out of range")
	// ErrBadValue rejects arguments the wire form cannot carry.
	ErrBadValue = errors.New("construct: argument out of range")
	// ErrShortEvent rejects short event ids where only long ones fit.
	ErrShortEvent = errors.New("construct: operation needs a long event id")
)

// Payload is one finished packet. Builders are the only constructors; the
// zero value is not a valid packet.
type Payload struct {
	buf [wire.PacketHeaderLen + wire.MaxPacketPayload]byte
	n   int
}

// Bytes returns the packet octets, lead octet first.
func (p Payload) Bytes() []byte {
	return p.buf[:p.n]
}

// Opcode returns the packet's lead octet.
func (p Payload) Opcode() vlcb.Opcode {
	return vlcb.Opcode(p.buf[0])
}

// Len returns the whole packet length in octets.
func (p Payload) Len() int {
	return p.n
}

func (p Payload) String() string {
	return fmt.Sprintf("%v %x", p.Opcode(), p.buf[wire.PacketHeaderLen:p.n])
}

// packet assembles op plus exactly the data octets its length bits
// declare. A mismatch is a builder bug, not caller input, and panics.
func packet(op vlcb.Opcode, data ...byte) Payload {
	if len(data) != op.DataLen() {
		panic(fmt.Sprintf("construct: %v carries %d data octets, given %d", op, op.DataLen(), len(data)))
	}
	var p Payload
	p.buf[0] = byte(op)
	p.n = wire.PacketHeaderLen + copy(p.buf[wire.PacketHeaderLen:], data)
	return p
}

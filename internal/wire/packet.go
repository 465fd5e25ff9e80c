package wire

import (
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

const (
	// PacketHeaderLen is the packed lead octet.
	PacketHeaderLen = 1
	// MaxPacketPayload is the largest packet payload; one frame carries
	// the lead octet plus at most this many data octets.
	MaxPacketPayload = 7
)

const (
	opcodeBitsMask uint8 = 0x1F
	payloadLenMask uint8 = 0xE0
	payloadLenShift uint = 5
)

// Protocol selects which socket kind consumes a packet.
type Protocol uint8

const (
	ProtocolModule Protocol = iota
	ProtocolLongMsg
	ProtocolUnknown
)

func (p Protocol) String() string {
	switch p {
	case ProtocolModule:
		return "module"
	case ProtocolLongMsg:
		return "longmsg"
	}
	return "unknown"
}

// ProtocolFor routes by the full lead octet. Splitting on the opcode's low
// five bits alone would collide length variants of unrelated operations,
// so the whole octet is the routing key.
func ProtocolFor(op vlcb.Opcode) Protocol {
	if !op.Known() {
		return ProtocolUnknown
	}
	if op == vlcb.OpDTXC {
		return ProtocolLongMsg
	}
	return ProtocolModule
}

// Packet is a view over one protocol packet in a caller buffer.
type Packet struct {
	buf []byte
}

// NewPacket wraps buf without validation.
func NewPacket(buf []byte) Packet {
	return Packet{buf: buf}
}

// NewCheckedPacket wraps buf after validating lengths.
func NewCheckedPacket(buf []byte) (Packet, error) {
	p := Packet{buf: buf}
	if err := p.CheckLen(); err != nil {
		return Packet{}, err
	}
	return p, nil
}

// CheckLen validates that the buffer covers the lead octet and the payload
// the lead octet declares.
func (p Packet) CheckLen() error {
	if len(p.buf) < PacketHeaderLen {
		return fmt.Errorf("%w: packet needs a lead octet", ErrTruncated)
	}
	if declared := p.PayloadLen(); len(p.buf) < PacketHeaderLen+declared {
		return fmt.Errorf("%w: lead octet declares %d payload octets, have %d",
			ErrTruncated, declared, len(p.buf)-PacketHeaderLen)
	}
	return nil
}

// Opcode returns the full lead octet. Its top three bits double as the
// payload length, so this is both identity and framing.
func (p Packet) Opcode() vlcb.Opcode {
	return vlcb.Opcode(p.buf[0])
}

// OpcodeBits returns the low five opcode bits in isolation.
func (p Packet) OpcodeBits() uint8 {
	return p.buf[0] & opcodeBitsMask
}

// SetOpcodeBits writes the low five opcode bits, preserving the length.
func (p Packet) SetOpcodeBits(bits uint8) {
	p.buf[0] = insert8(p.buf[0], opcodeBitsMask, 0, bits)
}

// PayloadLen returns the declared payload length from the top three bits.
func (p Packet) PayloadLen() int {
	return int(p.buf[0] >> payloadLenShift)
}

// SetPayloadLen writes the declared length, preserving the opcode bits.
func (p Packet) SetPayloadLen(n int) {
	p.buf[0] = insert8(p.buf[0], payloadLenMask, payloadLenShift, uint8(n))
}

// Payload returns the declared payload octets.
func (p Packet) Payload() []byte {
	return p.buf[PacketHeaderLen : PacketHeaderLen+p.PayloadLen()]
}

// Bytes exposes the lead octet plus declared payload.
func (p Packet) Bytes() []byte {
	return p.buf[:PacketHeaderLen+p.PayloadLen()]
}

// NextProtocol routes the packet to its socket kind.
func (p Packet) NextProtocol() Protocol {
	return ProtocolFor(p.Opcode())
}

// PacketRepr is a parsed packet header. The opcode alone determines the
// payload length, so the repr is a single field.
type PacketRepr struct {
	Opcode vlcb.Opcode
}

// ParsePacket validates framing and opcode recognition.
func ParsePacket(p Packet) (PacketRepr, error) {
	if err := p.CheckLen(); err != nil {
		return PacketRepr{}, err
	}
	op := p.Opcode()
	if !op.Known() {
		return PacketRepr{}, fmt.Errorf("%w: 0x%02X", ErrUnrecognizedOpcode, uint8(op))
	}
	return PacketRepr{Opcode: op}, nil
}

// PayloadLen is the data octet count the opcode declares.
func (r PacketRepr) PayloadLen() int {
	return r.Opcode.DataLen()
}

// BufferLen is the octet count Emit needs.
func (r PacketRepr) BufferLen() int {
	return PacketHeaderLen + r.PayloadLen()
}

// Emit writes the lead octet into p, then hands the payload window to fn.
// fn's error aborts the emit and is returned unchanged.
func (r PacketRepr) Emit(p Packet, fn func(payload []byte) error) error {
	p.buf[0] = uint8(r.Opcode)
	return fn(p.Payload())
}

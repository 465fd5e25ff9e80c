package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

const (
	// FrameHeaderLen is the fixed bus frame header size in octets.
	FrameHeaderLen = 2
	// MaxFramePayload is the largest payload a single bus frame carries.
	MaxFramePayload = 8
	// MaxFrameLen bounds one whole frame, header included.
	MaxFrameLen = FrameHeaderLen + MaxFramePayload
)

// Header field layout. The arbitration id sits in the low seven bits,
// priority directly above it, RTR in the top bit. Lower numeric priority
// wins bus arbitration.
const (
	rtrMask       uint16 = 0x8000
	priorityMask  uint16 = 0x0180
	priorityShift uint   = 7
	canIDMask     uint16 = 0x007F
)

// Priority is the 2-bit arbitration class. Zero is the most urgent; new
// frames default to PriorityLow so urgency is always an explicit choice.
type Priority uint8

const (
	PriorityHigh Priority = iota
	PriorityAboveNormal
	PriorityNormal
	PriorityLow
)

// DefaultPriority is what egress stamps on frames whose sender never chose
// a class.
const DefaultPriority = PriorityLow

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityAboveNormal:
		return "above-normal"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	}
	return fmt.Sprintf("Priority(%d)", uint8(p))
}

// Frame is a view over one bus frame in a caller buffer. Constructing a
// view never copies; mutators write straight into the underlying octets.
type Frame struct {
	buf []byte
}

// NewFrame wraps buf without validation. Accessors on an undersized buffer
// will panic; use NewCheckedFrame at trust boundaries.
func NewFrame(buf []byte) Frame {
	return Frame{buf: buf}
}

// NewCheckedFrame wraps buf after validating the framing invariants.
func NewCheckedFrame(buf []byte) (Frame, error) {
	f := Frame{buf: buf}
	if err := f.CheckLen(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// CheckLen validates that the buffer holds a complete header and no more
// payload than one frame permits.
func (f Frame) CheckLen() error {
	if len(f.buf) < FrameHeaderLen {
		return fmt.Errorf("%w: frame needs %d header octets, have %d", ErrTruncated, FrameHeaderLen, len(f.buf))
	}
	if len(f.buf) > MaxFrameLen {
		return fmt.Errorf("%w: frame holds %d payload octets, limit %d", ErrPayloadTooLarge, len(f.buf)-FrameHeaderLen, MaxFramePayload)
	}
	return nil
}

func (f Frame) header() uint16 {
	return binary.BigEndian.Uint16(f.buf[0:FrameHeaderLen])
}

func (f Frame) setHeader(h uint16) {
	binary.BigEndian.PutUint16(f.buf[0:FrameHeaderLen], h)
}

// ID returns the arbitration id from the low seven header bits.
func (f Frame) ID() vlcb.CanID {
	return vlcb.CanID(f.header() & canIDMask)
}

// SetID writes the arbitration id, leaving the other header fields alone.
func (f Frame) SetID(id vlcb.CanID) {
	f.setHeader(insert16(f.header(), canIDMask, 0, uint16(id)))
}

// Priority returns the 2-bit arbitration class.
func (f Frame) Priority() Priority {
	return Priority((f.header() & priorityMask) >> priorityShift)
}

// SetPriority writes the arbitration class, leaving the rest alone.
func (f Frame) SetPriority(p Priority) {
	f.setHeader(insert16(f.header(), priorityMask, priorityShift, uint16(p)))
}

// RTR reports the remote-transmission-request bit.
func (f Frame) RTR() bool {
	return f.header()&rtrMask != 0
}

// SetRTR writes the remote-transmission-request bit.
func (f Frame) SetRTR(rtr bool) {
	var v uint16
	if rtr {
		v = 1
	}
	f.setHeader(insert16(f.header(), rtrMask, 15, v))
}

// Payload returns the octets after the header.
func (f Frame) Payload() []byte {
	return f.buf[FrameHeaderLen:]
}

// Bytes exposes the whole underlying buffer, header included.
func (f Frame) Bytes() []byte {
	return f.buf
}

// FrameRepr is one parsed bus frame, detached from any buffer.
type FrameRepr struct {
	ID       vlcb.CanID
	Priority Priority
	RTR      bool
	Data     [MaxFramePayload]byte
	DataLen  int
}

// ParseFrame validates the view and lifts it into a repr.
func ParseFrame(f Frame) (FrameRepr, error) {
	if err := f.CheckLen(); err != nil {
		return FrameRepr{}, err
	}
	r := FrameRepr{
		ID:       f.ID(),
		Priority: f.Priority(),
		RTR:      f.RTR(),
		DataLen:  len(f.Payload()),
	}
	copy(r.Data[:], f.Payload())
	return r, nil
}

// Payload returns the live portion of the payload array.
func (r *FrameRepr) Payload() []byte {
	return r.Data[:r.DataLen]
}

// BufferLen is the octet count Emit needs.
func (r *FrameRepr) BufferLen() int {
	return FrameHeaderLen + r.DataLen
}

// Emit writes the repr into f, whose buffer must hold BufferLen octets.
func (r *FrameRepr) Emit(f Frame) {
	f.setHeader(0)
	f.SetID(r.ID)
	f.SetPriority(r.Priority)
	f.SetRTR(r.RTR)
	copy(f.Payload(), r.Payload())
}

func (r *FrameRepr) String() string {
	return fmt.Sprintf("frame id=%v prio=%v rtr=%v len=%d", r.ID, r.Priority, r.RTR, r.DataLen)
}

package device

import (
	"fmt"

	"github.com/danmuck/railcan/internal/wire"
)

// Medium enumerates the physical transports a device can sit on.
type Medium uint8

const (
	MediumCan Medium = iota
)

func (m Medium) String() string {
	if m == MediumCan {
		return "can"
	}
	return fmt.Sprintf("Medium(%d)", uint8(m))
}

// Capabilities are a device's fixed transport properties. An interface
// captures them at construction and treats any later change as a
// programming error.
type Capabilities struct {
	Medium Medium
	// MaxTransmissionUnit bounds one frame, header included.
	MaxTransmissionUnit int
}

// CanCapabilities is what every CAN-medium driver reports.
func CanCapabilities() Capabilities {
	return Capabilities{
		Medium:              MediumCan,
		MaxTransmissionUnit: wire.MaxFrameLen,
	}
}

// RxToken is a single-use lease on one received frame. The buffer is only
// valid inside the callback; keep a copy to hold the frame longer.
type RxToken interface {
	Consume(f func(buf []byte))
}

// TxToken is a single-use lease on one transmit slot. Consume hands f a
// length-octet buffer to fill; an error from f abandons the transmission
// and is returned unchanged.
type TxToken interface {
	Consume(length int, f func(buf []byte) error) error
}

// Device is the non-blocking transport contract the interface polls.
// Receive pairs the rx token with a tx token so an immediate reply can be
// written without waiting for the next transmit slot.
type Device interface {
	Receive() (RxToken, TxToken, bool)
	Transmit() (TxToken, bool)
	Capabilities() Capabilities
}

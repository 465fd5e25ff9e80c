package wire

import (
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

// MaxHardwareAddrLen covers the widest supported medium address. CAN
// arbitration ids are a single octet.
const MaxHardwareAddrLen = 1

// AddressKind tags a HardwareAddress with its medium.
type AddressKind uint8

const (
	AddressCan AddressKind = iota
)

func (k AddressKind) String() string {
	if k == AddressCan {
		return "can"
	}
	return fmt.Sprintf("AddressKind(%d)", uint8(k))
}

// HardwareAddress is a medium-tagged link address.
type HardwareAddress struct {
	kind AddressKind
	can  vlcb.CanID
}

// CanAddress builds a CAN-medium address.
func CanAddress(id vlcb.CanID) HardwareAddress {
	return HardwareAddress{kind: AddressCan, can: id}
}

func (a HardwareAddress) Kind() AddressKind {
	return a.kind
}

// Can returns the arbitration id when the address is CAN-tagged.
func (a HardwareAddress) Can() (vlcb.CanID, bool) {
	if a.kind != AddressCan {
		return 0, false
	}
	return a.can, true
}

func (a HardwareAddress) String() string {
	switch a.kind {
	case AddressCan:
		return a.can.String()
	}
	return "addr:?"
}

// RawHardwareAddress carries unparsed address octets straight off a wire
// or out of persisted config.
type RawHardwareAddress struct {
	data [MaxHardwareAddrLen]byte
	len  int
}

// RawAddressFromBytes copies up to MaxHardwareAddrLen octets.
func RawAddressFromBytes(b []byte) (RawHardwareAddress, error) {
	if len(b) > MaxHardwareAddrLen {
		return RawHardwareAddress{}, fmt.Errorf("%w: %d octets, limit %d", ErrBadAddress, len(b), MaxHardwareAddrLen)
	}
	var r RawHardwareAddress
	r.len = copy(r.data[:], b)
	return r, nil
}

func (r RawHardwareAddress) Bytes() []byte {
	return r.data[:r.len]
}

func (r RawHardwareAddress) Len() int {
	return r.len
}

// Parse lifts the raw octets into a typed address for the given medium.
func (r RawHardwareAddress) Parse(kind AddressKind) (HardwareAddress, error) {
	switch kind {
	case AddressCan:
		if r.len != 1 {
			return HardwareAddress{}, fmt.Errorf("%w: can address needs 1 octet, have %d", ErrBadAddress, r.len)
		}
		return CanAddress(vlcb.NewCanID(r.data[0])), nil
	}
	return HardwareAddress{}, fmt.Errorf("%w: unsupported medium %v", ErrBadAddress, kind)
}

package vlcb

import (
	"encoding/binary"
	"fmt"
)

// LocoAddress is a DCC decoder address, short (7-bit) or long (14-bit).
type LocoAddress struct {
	addr uint16
	long bool
}

// ShortLocoAddress builds a 7-bit decoder address.
func ShortLocoAddress(addr uint8) LocoAddress {
	return LocoAddress{addr: uint16(addr)}
}

// LongLocoAddress builds a 14-bit decoder address.
func LongLocoAddress(addr uint16) LocoAddress {
	return LocoAddress{addr: addr, long: true}
}

// IsLong reports whether the address is the 14-bit form.
func (a LocoAddress) IsLong() bool {
	return a.long
}

// Bytes returns the raw address, big-endian.
func (a LocoAddress) Bytes() [2]byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], a.addr)
	return b
}

// WireBytes returns the address as session packets carry it: short
// addresses zero the high octet, long addresses set its top two bits.
func (a LocoAddress) WireBytes() [2]byte {
	b := a.Bytes()
	if a.long {
		b[0] |= 0xC0
	} else {
		b[0] = 0
	}
	return b
}

func (a LocoAddress) String() string {
	if a.long {
		return fmt.Sprintf("loco14:%d", a.addr)
	}
	return fmt.Sprintf("loco:%d", a.addr)
}

// EngineState is the 2-bit session state reported in engine flags.
type EngineState uint8

const (
	EngineActive EngineState = iota
	EngineConsisted
	EngineConsistMaster
	EngineInactive
)

// FunctionRange selects which block of decoder functions a DFUN octet
// addresses.
type FunctionRange uint8

const (
	FunctionsF0toF4 FunctionRange = 1 + iota
	FunctionsF5toF8
	FunctionsF9toF12
	FunctionsF13toF20
	FunctionsF21toF28
)

// ThrottleMode is the speed-step mode carried in the low two bits of the
// STMOD and DFLG octets.
type ThrottleMode uint8

const (
	Steps128 ThrottleMode = iota
	Steps14
	Steps28Interleave
	Steps28
)

// SessionQueryMode is the GLOC flag octet. Default behaves exactly like a
// plain session request.
type SessionQueryMode uint8

const (
	QueryDefault SessionQueryMode = 0x00
	QuerySteal   SessionQueryMode = 0x01
	QueryShare   SessionQueryMode = 0x02
)

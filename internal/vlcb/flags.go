package vlcb

import "fmt"

// NodeFlags is the parameter-table flag word a node reports about itself.
type NodeFlags uint8

const (
	FlagConsumer   NodeFlags = 0x01 // consumes events
	FlagProducer   NodeFlags = 0x02 // produces events
	FlagFLiM       NodeFlags = 0x04 // runs in full learning mode
	FlagBootloader NodeFlags = 0x08 // supports the bootloader protocol
	FlagCoE        NodeFlags = 0x10 // consumes its own events
	FlagLearn      NodeFlags = 0x20 // currently in learn mode
)

func (f NodeFlags) Has(mask NodeFlags) bool {
	return f&mask != 0
}

func (f NodeFlags) With(mask NodeFlags) NodeFlags {
	return f | mask
}

func (f NodeFlags) Without(mask NodeFlags) NodeFlags {
	return f &^ mask
}

// ModuleMode is the persisted operating mode octet.
type ModuleMode uint8

const (
	ModeSetup         ModuleMode = 0x00
	ModeNormal        ModuleMode = 0x01
	ModeUninitialized ModuleMode = 0xFF
)

func (m ModuleMode) String() string {
	switch m {
	case ModeSetup:
		return "setup"
	case ModeNormal:
		return "normal"
	case ModeUninitialized:
		return "uninitialized"
	}
	return fmt.Sprintf("ModuleMode(0x%02X)", uint8(m))
}

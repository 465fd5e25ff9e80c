package nodecfg

import (
	"errors"

	"github.com/danmuck/railcan/internal/vlcb"
)

var (
	// ErrEventTableFull means every taught-event slot is occupied.
	ErrEventTableFull = errors.New("nodecfg: event table full")
	// ErrBadIndex rejects an index outside a bounded table. Node
	// variables are 1-based; index zero is always out of range.
	ErrBadIndex = errors.New("nodecfg: index out of range")
	// ErrSlotOccupied rejects restoring an event onto a taken slot.
	ErrSlotOccupied = errors.New("nodecfg: event slot occupied")
)

// ServiceFlags are the persisted per-node service switches.
type ServiceFlags uint8

const (
	FlagHeartbeat ServiceFlags = 0x01
	FlagEventAck  ServiceFlags = 0x02
)

// LearnedEvent is one taught event: its slot in the node's event table
// plus its event variables.
type LearnedEvent struct {
	Slot uint8
	Vars []byte
}

// NodeConfig is the configuration collaborator the module runtime consumes.
// Implementations own persistence; callers own when to read and write.
// EventIDs key the event table whole, short flag included, so a short and
// a long event with the same octets occupy different entries.
type NodeConfig interface {
	NodeNumber() vlcb.NodeNumber
	SetNodeNumber(nn vlcb.NodeNumber)
	CanID() vlcb.CanID
	SetCanID(id vlcb.CanID)

	Mode() vlcb.ModuleMode
	// SetModeNormal assigns the node number and enters normal operation.
	SetModeNormal(nn vlcb.NodeNumber)
	// SetModeUninitialized drops the node number and leaves normal
	// operation.
	SetModeUninitialized()

	StoredEventCount() uint8
	// SaveEvent teaches an event, overwriting its variables if it is
	// already taught and claiming the lowest free slot otherwise.
	SaveEvent(ev vlcb.EventID, vars []byte) error
	GetEvent(ev vlcb.EventID) (LearnedEvent, bool)
	HasEvent(ev vlcb.EventID) bool
	HasEventInSlot(slot uint8) bool
	DeleteEvent(ev vlcb.EventID)

	// NodeVar reads a node variable by 1-based index.
	NodeVar(index uint8) (uint8, error)
	SetNodeVar(index, value uint8) error

	Flags() ServiceFlags
	SetFlags(f ServiceFlags)
	SetHeartbeat(on bool)
	SetEventAck(on bool)
	HeartbeatOn() bool
	EventAckOn() bool

	WasReset() bool
	RaiseResetFlag()
	ClearResetFlag()

	// Wipe returns the node to the factory state and raises the reset
	// flag so the next startup can tell.
	Wipe()
}

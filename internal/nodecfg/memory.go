package nodecfg

import (
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

// Limits size the bounded tables of a memory-backed config. They mirror
// the parameter-table octets a node reports about itself.
type Limits struct {
	MaxEvents     uint8
	EventVarCount uint8
	NodeVarCount  uint8
}

// DefaultLimits fit a small accessory module.
func DefaultLimits() Limits {
	return Limits{MaxEvents: 32, EventVarCount: 2, NodeVarCount: 8}
}

// uninitializedNV is what node variables read before anything writes them,
// matching erased persistent storage.
const uninitializedNV = 0xFF

// Memory is the in-memory NodeConfig. It backs tests, the demo runtime,
// and the TOML snapshot layer; nothing above it knows which it got.
type Memory struct {
	limits Limits

	mode      vlcb.ModuleMode
	canID     vlcb.CanID
	nodeNum   vlcb.NodeNumber
	flags     ServiceFlags
	resetFlag bool

	nvs    []uint8
	events map[vlcb.EventID]LearnedEvent
}

// NewMemory builds a factory-state config with the given table bounds.
func NewMemory(limits Limits) *Memory {
	m := &Memory{limits: limits}
	m.factoryState()
	return m
}

func (m *Memory) factoryState() {
	m.mode = vlcb.ModeUninitialized
	m.canID = 0
	m.nodeNum = 0
	m.flags = 0
	m.nvs = make([]uint8, m.limits.NodeVarCount)
	for i := range m.nvs {
		m.nvs[i] = uninitializedNV
	}
	m.events = make(map[vlcb.EventID]LearnedEvent, m.limits.MaxEvents)
}

// Limits returns the table bounds the config was built with.
func (m *Memory) Limits() Limits {
	return m.limits
}

func (m *Memory) NodeNumber() vlcb.NodeNumber {
	return m.nodeNum
}

func (m *Memory) SetNodeNumber(nn vlcb.NodeNumber) {
	m.nodeNum = nn
}

func (m *Memory) CanID() vlcb.CanID {
	return m.canID
}

func (m *Memory) SetCanID(id vlcb.CanID) {
	m.canID = id
}

func (m *Memory) Mode() vlcb.ModuleMode {
	return m.mode
}

func (m *Memory) SetModeNormal(nn vlcb.NodeNumber) {
	m.mode = vlcb.ModeNormal
	m.nodeNum = nn
}

func (m *Memory) SetModeUninitialized() {
	m.mode = vlcb.ModeUninitialized
	m.nodeNum = 0
}

func (m *Memory) StoredEventCount() uint8 {
	return uint8(len(m.events))
}

func (m *Memory) SaveEvent(ev vlcb.EventID, vars []byte) error {
	if len(vars) > int(m.limits.EventVarCount) {
		return fmt.Errorf("%w: %d event variables, table holds %d", ErrBadIndex, len(vars), m.limits.EventVarCount)
	}
	if e, ok := m.events[ev]; ok {
		copy(e.Vars, vars)
		return nil
	}
	slot, ok := m.freeSlot()
	if !ok {
		return fmt.Errorf("%w: %d events taught", ErrEventTableFull, len(m.events))
	}
	stored := make([]byte, m.limits.EventVarCount)
	copy(stored, vars)
	m.events[ev] = LearnedEvent{Slot: slot, Vars: stored}
	return nil
}

// RestoreEvent places a taught event into a known slot, for reloading a
// snapshot. The slot must be free.
func (m *Memory) RestoreEvent(ev vlcb.EventID, e LearnedEvent) error {
	if len(m.events) >= int(m.limits.MaxEvents) {
		return fmt.Errorf("%w: %d events taught", ErrEventTableFull, len(m.events))
	}
	if m.HasEventInSlot(e.Slot) {
		return fmt.Errorf("%w: slot %d", ErrSlotOccupied, e.Slot)
	}
	stored := make([]byte, m.limits.EventVarCount)
	copy(stored, e.Vars)
	m.events[ev] = LearnedEvent{Slot: e.Slot, Vars: stored}
	return nil
}

func (m *Memory) GetEvent(ev vlcb.EventID) (LearnedEvent, bool) {
	e, ok := m.events[ev]
	return e, ok
}

func (m *Memory) HasEvent(ev vlcb.EventID) bool {
	_, ok := m.events[ev]
	return ok
}

func (m *Memory) HasEventInSlot(slot uint8) bool {
	for _, e := range m.events {
		if e.Slot == slot {
			return true
		}
	}
	return false
}

func (m *Memory) DeleteEvent(ev vlcb.EventID) {
	delete(m.events, ev)
}

// eachEvent walks the taught events in no particular order.
func (m *Memory) eachEvent(f func(ev vlcb.EventID, e LearnedEvent)) {
	for ev, e := range m.events {
		f(ev, e)
	}
}

// freeSlot finds the lowest event table index not yet claimed. Slots free
// up when events are deleted, so the scan cannot just count.
func (m *Memory) freeSlot() (uint8, bool) {
	if len(m.events) >= int(m.limits.MaxEvents) {
		return 0, false
	}
	for slot := uint8(0); slot < m.limits.MaxEvents; slot++ {
		if !m.HasEventInSlot(slot) {
			return slot, true
		}
	}
	return 0, false
}

func (m *Memory) NodeVar(index uint8) (uint8, error) {
	if index < 1 || int(index) > len(m.nvs) {
		return 0, fmt.Errorf("%w: nv %d of %d", ErrBadIndex, index, len(m.nvs))
	}
	return m.nvs[index-1], nil
}

func (m *Memory) SetNodeVar(index, value uint8) error {
	if index < 1 || int(index) > len(m.nvs) {
		return fmt.Errorf("%w: nv %d of %d", ErrBadIndex, index, len(m.nvs))
	}
	m.nvs[index-1] = value
	return nil
}

func (m *Memory) Flags() ServiceFlags {
	return m.flags
}

func (m *Memory) SetFlags(f ServiceFlags) {
	m.flags = f
}

func (m *Memory) SetHeartbeat(on bool) {
	if on {
		m.flags |= FlagHeartbeat
	} else {
		m.flags &^= FlagHeartbeat
	}
}

func (m *Memory) SetEventAck(on bool) {
	if on {
		m.flags |= FlagEventAck
	} else {
		m.flags &^= FlagEventAck
	}
}

func (m *Memory) HeartbeatOn() bool {
	return m.flags&FlagHeartbeat != 0
}

func (m *Memory) EventAckOn() bool {
	return m.flags&FlagEventAck != 0
}

func (m *Memory) WasReset() bool {
	return m.resetFlag
}

func (m *Memory) RaiseResetFlag() {
	m.resetFlag = true
}

func (m *Memory) ClearResetFlag() {
	m.resetFlag = false
}

func (m *Memory) Wipe() {
	m.factoryState()
	m.resetFlag = true
}

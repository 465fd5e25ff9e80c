package nodecfg

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/railcan/internal/vlcb"
)

// snapshot is the TOML form of a memory config. Event variables travel as
// hex strings; TOML has no binary type worth fighting.
type snapshot struct {
	Mode       string          `toml:"mode"`
	CanID      uint8           `toml:"can_id"`
	NodeNumber uint16          `toml:"node_number"`
	Heartbeat  bool            `toml:"heartbeat"`
	EventAck   bool            `toml:"event_ack"`
	ResetFlag  bool            `toml:"reset_flag"`
	NodeVars   []uint8         `toml:"node_vars"`
	Events     []snapshotEvent `toml:"events"`

	MaxEvents     uint8 `toml:"max_events"`
	EventVarCount uint8 `toml:"event_var_count"`
}

type snapshotEvent struct {
	Node  uint16 `toml:"node"`
	Index uint16 `toml:"index"`
	Short bool   `toml:"short"`
	Slot  uint8  `toml:"slot"`
	Vars  string `toml:"vars"`
}

// SaveFile writes the config to path as TOML. The write goes through a
// temp file and rename so a crash never leaves a torn snapshot.
func (m *Memory) SaveFile(path string) error {
	s := snapshot{
		Mode:          m.mode.String(),
		CanID:         uint8(m.canID),
		NodeNumber:    uint16(m.nodeNum),
		Heartbeat:     m.HeartbeatOn(),
		EventAck:      m.EventAckOn(),
		ResetFlag:     m.resetFlag,
		NodeVars:      append([]uint8(nil), m.nvs...),
		MaxEvents:     m.limits.MaxEvents,
		EventVarCount: m.limits.EventVarCount,
	}
	m.eachEvent(func(ev vlcb.EventID, e LearnedEvent) {
		s.Events = append(s.Events, snapshotEvent{
			Node:  uint16(ev.Node),
			Index: ev.Index,
			Short: ev.Short,
			Slot:  e.Slot,
			Vars:  hex.EncodeToString(e.Vars),
		})
	})
	sort.Slice(s.Events, func(i, j int) bool { return s.Events[i].Slot < s.Events[j].Slot })

	tmp, err := os.CreateTemp(filepath.Dir(path), ".nodecfg-*")
	if err != nil {
		return fmt.Errorf("nodecfg: snapshot temp: %w", err)
	}
	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(s); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("nodecfg: encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("nodecfg: close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("nodecfg: place snapshot: %w", err)
	}
	return nil
}

// LoadFile builds a memory config from a snapshot written by SaveFile.
// The snapshot's own table bounds apply; limits says what the module
// build supports and a snapshot that exceeds it is rejected.
func LoadFile(path string, limits Limits) (*Memory, error) {
	var s snapshot
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, fmt.Errorf("nodecfg: decode snapshot: %w", err)
	}
	if s.MaxEvents > limits.MaxEvents || s.EventVarCount > limits.EventVarCount {
		return nil, fmt.Errorf("nodecfg: snapshot sized %d/%d events/vars, build supports %d/%d",
			s.MaxEvents, s.EventVarCount, limits.MaxEvents, limits.EventVarCount)
	}
	if len(s.NodeVars) > int(limits.NodeVarCount) {
		return nil, fmt.Errorf("nodecfg: snapshot carries %d node vars, build supports %d",
			len(s.NodeVars), limits.NodeVarCount)
	}

	m := NewMemory(limits)
	switch s.Mode {
	case vlcb.ModeNormal.String():
		m.SetModeNormal(vlcb.NodeNumber(s.NodeNumber))
	case vlcb.ModeSetup.String():
		m.mode = vlcb.ModeSetup
	default:
		m.SetModeUninitialized()
	}
	m.SetCanID(vlcb.NewCanID(s.CanID))
	m.SetHeartbeat(s.Heartbeat)
	m.SetEventAck(s.EventAck)
	m.resetFlag = s.ResetFlag
	for i, v := range s.NodeVars {
		if err := m.SetNodeVar(uint8(i+1), v); err != nil {
			return nil, err
		}
	}
	for _, se := range s.Events {
		vars, err := hex.DecodeString(se.Vars)
		if err != nil {
			return nil, fmt.Errorf("nodecfg: event slot %d variables %q: %w", se.Slot, se.Vars, err)
		}
		ev := vlcb.NewEventID(vlcb.NodeNumber(se.Node), se.Index, se.Short)
		if err := m.RestoreEvent(ev, LearnedEvent{Slot: se.Slot, Vars: vars}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/railcan/internal/module"
	"github.com/danmuck/railcan/internal/nodecfg"
	"github.com/danmuck/railcan/internal/vlcb"
)

// Device kinds nodectl can run a node over.
const (
	deviceLoopback = "loopback"
	deviceSLCAN    = "slcan"
	deviceBridge   = "bridge"
)

// runConfig is everything nodectl needs to stand a node up.
type runConfig struct {
	Name       string
	DeviceKind string

	SerialPort string
	SerialBaud int
	BusKbit    int
	BridgeAddr string

	CanID      uint8
	NodeNumber uint16

	SnapshotPath string
	Tick         time.Duration

	Manufacturer uint8
	ModuleID     uint8
	VersionMajor uint8
	VersionMinor string
	VersionBeta  uint8

	MaxEvents uint8
	EventVars uint8
	NodeVars  uint8
}

func defaultRunConfig() runConfig {
	limits := nodecfg.DefaultLimits()
	return runConfig{
		Name:         "RAILCAN",
		DeviceKind:   deviceLoopback,
		SerialBaud:   115200,
		BusKbit:      125,
		Tick:         10 * time.Millisecond,
		Manufacturer: 13,
		ModuleID:     1,
		VersionMajor: 1,
		VersionMinor: "a",
		MaxEvents:    limits.MaxEvents,
		EventVars:    limits.EventVarCount,
		NodeVars:     limits.NodeVarCount,
	}
}

// nodectl config.toml key mapping to node runtime settings.
type fileConfig struct {
	Name         string `toml:"name"`
	Device       string `toml:"device"`
	SerialPort   string `toml:"serial_port"`
	SerialBaud   int    `toml:"serial_baud"`
	BusKbit      int    `toml:"bus_kbit"`
	BridgeAddr   string `toml:"bridge_addr"`
	CanID        uint8  `toml:"can_id"`
	NodeNumber   uint16 `toml:"node_number"`
	SnapshotPath string `toml:"snapshot_path"`
	TickMillis   int    `toml:"tick_ms"`
	Manufacturer uint8  `toml:"manufacturer"`
	ModuleID     uint8  `toml:"module_id"`
	VersionMajor uint8  `toml:"version_major"`
	VersionMinor string `toml:"version_minor"`
	VersionBeta  uint8  `toml:"version_beta"`
	MaxEvents    uint8  `toml:"max_events"`
	EventVars    uint8  `toml:"event_vars"`
	NodeVars     uint8  `toml:"node_vars"`
}

// nodectl loader for TOML config with default overlay.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load node config: %w", err)
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("device") {
		cfg.DeviceKind = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("serial_port") {
		cfg.SerialPort = strings.TrimSpace(raw.SerialPort)
	}
	if meta.IsDefined("serial_baud") {
		cfg.SerialBaud = raw.SerialBaud
	}
	if meta.IsDefined("bus_kbit") {
		cfg.BusKbit = raw.BusKbit
	}
	if meta.IsDefined("bridge_addr") {
		cfg.BridgeAddr = strings.TrimSpace(raw.BridgeAddr)
	}
	if meta.IsDefined("can_id") {
		cfg.CanID = raw.CanID
	}
	if meta.IsDefined("node_number") {
		cfg.NodeNumber = raw.NodeNumber
	}
	if meta.IsDefined("snapshot_path") {
		cfg.SnapshotPath = strings.TrimSpace(raw.SnapshotPath)
	}
	if meta.IsDefined("tick_ms") {
		cfg.Tick = time.Duration(raw.TickMillis) * time.Millisecond
	}
	if meta.IsDefined("manufacturer") {
		cfg.Manufacturer = raw.Manufacturer
	}
	if meta.IsDefined("module_id") {
		cfg.ModuleID = raw.ModuleID
	}
	if meta.IsDefined("version_major") {
		cfg.VersionMajor = raw.VersionMajor
	}
	if meta.IsDefined("version_minor") {
		cfg.VersionMinor = strings.TrimSpace(raw.VersionMinor)
	}
	if meta.IsDefined("version_beta") {
		cfg.VersionBeta = raw.VersionBeta
	}
	if meta.IsDefined("max_events") {
		cfg.MaxEvents = raw.MaxEvents
	}
	if meta.IsDefined("event_vars") {
		cfg.EventVars = raw.EventVars
	}
	if meta.IsDefined("node_vars") {
		cfg.NodeVars = raw.NodeVars
	}

	if err := cfg.validate(); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}

func (c runConfig) validate() error {
	switch c.DeviceKind {
	case deviceLoopback:
	case deviceSLCAN:
		if c.SerialPort == "" {
			return fmt.Errorf("load node config: device %q requires serial_port", c.DeviceKind)
		}
	case deviceBridge:
		if c.BridgeAddr == "" {
			return fmt.Errorf("load node config: device %q requires bridge_addr", c.DeviceKind)
		}
	default:
		return fmt.Errorf("load node config: unknown device %q (expected %s, %s or %s)",
			c.DeviceKind, deviceLoopback, deviceSLCAN, deviceBridge)
	}
	if len(c.VersionMinor) != 1 {
		return fmt.Errorf("load node config: version_minor must be one ascii letter, got %q", c.VersionMinor)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("load node config: tick_ms must be positive")
	}
	return nil
}

func (c runConfig) limits() nodecfg.Limits {
	return nodecfg.Limits{
		MaxEvents:     c.MaxEvents,
		EventVarCount: c.EventVars,
		NodeVarCount:  c.NodeVars,
	}
}

func (c runConfig) identity() module.Identity {
	return module.Identity{
		Manufacturer: c.Manufacturer,
		ModuleID:     c.ModuleID,
		Name:         c.Name,
		Version: module.Version{
			Major: c.VersionMajor,
			Minor: c.VersionMinor[0],
			Beta:  c.VersionBeta,
		},
		Flags:         vlcb.FlagConsumer | vlcb.FlagProducer,
		MaxEvents:     c.MaxEvents,
		EventVarCount: c.EventVars,
		NodeVarCount:  c.NodeVars,
	}
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Device kinds bridgectl can serve.
const (
	deviceLoopback = "loopback"
	deviceSLCAN    = "slcan"
)

// bridgeConfig is everything bridgectl needs to serve a device.
type bridgeConfig struct {
	Name       string
	ListenAddr string

	DeviceKind string
	SerialPort string
	SerialBaud int
	BusKbit    int

	MetricsAddr string
	PollEvery   time.Duration
}

func defaultBridgeConfig() bridgeConfig {
	return bridgeConfig{
		Name:       "bridge",
		ListenAddr: "127.0.0.1:5550",
		DeviceKind: deviceLoopback,
		SerialBaud: 115200,
		BusKbit:    125,
		PollEvery:  time.Millisecond,
	}
}

// bridgectl config.toml key mapping to bridge settings.
type fileConfig struct {
	Name        string `toml:"name"`
	ListenAddr  string `toml:"listen_addr"`
	Device      string `toml:"device"`
	SerialPort  string `toml:"serial_port"`
	SerialBaud  int    `toml:"serial_baud"`
	BusKbit     int    `toml:"bus_kbit"`
	MetricsAddr string `toml:"metrics_addr"`
	PollMicros  int    `toml:"poll_us"`
}

// bridgectl loader for TOML config with default overlay.
func loadBridgeConfig(path string) (bridgeConfig, error) {
	cfg := defaultBridgeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return bridgeConfig{}, fmt.Errorf("load bridge config: %w", err)
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
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
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("poll_us") {
		cfg.PollEvery = time.Duration(raw.PollMicros) * time.Microsecond
	}

	if err := cfg.validate(); err != nil {
		return bridgeConfig{}, err
	}
	return cfg, nil
}

func (c bridgeConfig) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("load bridge config: listen_addr is required")
	}
	switch c.DeviceKind {
	case deviceLoopback:
	case deviceSLCAN:
		if c.SerialPort == "" {
			return fmt.Errorf("load bridge config: device %q requires serial_port", c.DeviceKind)
		}
	default:
		return fmt.Errorf("load bridge config: unknown device %q (expected %s or %s)",
			c.DeviceKind, deviceLoopback, deviceSLCAN)
	}
	if c.PollEvery <= 0 {
		return fmt.Errorf("load bridge config: poll_us must be positive")
	}
	return nil
}

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadBridgeConfigDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
name = "layout-east"
listen_addr = "0.0.0.0:5550"
device = "slcan"
serial_port = "/dev/ttyUSB0"
metrics_addr = "127.0.0.1:9102"
poll_us = 500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadBridgeConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "layout-east" {
		t.Fatalf("unexpected name: %q", cfg.Name)
	}
	if cfg.DeviceKind != deviceSLCAN || cfg.SerialPort != "/dev/ttyUSB0" {
		t.Fatalf("unexpected device: %q port %q", cfg.DeviceKind, cfg.SerialPort)
	}
	// undefined keys keep defaults
	if cfg.SerialBaud != 115200 || cfg.BusKbit != 125 {
		t.Fatalf("undefined serial settings overwritten: baud=%d kbit=%d", cfg.SerialBaud, cfg.BusKbit)
	}
	if cfg.MetricsAddr != "127.0.0.1:9102" {
		t.Fatalf("unexpected metrics addr: %q", cfg.MetricsAddr)
	}
	if cfg.PollEvery != 500*time.Microsecond {
		t.Fatalf("unexpected poll interval: %v", cfg.PollEvery)
	}
}

func TestLoadBridgeConfigRejectsBadDevice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`device = "bridge"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadBridgeConfig(path); err == nil {
		t.Fatalf("expected unknown device error")
	}
}

func TestLoadBridgeConfigSerialNeedsPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`device = "slcan"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadBridgeConfig(path); err == nil {
		t.Fatalf("expected serial_port validation error")
	}
}

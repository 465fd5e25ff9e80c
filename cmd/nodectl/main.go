package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/danmuck/railcan/internal/bridge"
	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/module"
	"github.com/danmuck/railcan/internal/nodecfg"
	"github.com/danmuck/railcan/internal/vlcb"
)

func main() {
	configPath := flag.String("config", "", "TOML config path (defaults apply when omitted)")
	deviceKind := flag.String("device", "", "device kind override: loopback|slcan|bridge")
	snapshot := flag.String("snapshot", "", "node memory snapshot path override")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := defaultRunConfig()
	if *configPath != "" {
		loaded, err := loadRunConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nodectl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *deviceKind != "" {
		cfg.DeviceKind = *deviceKind
	}
	if *snapshot != "" {
		cfg.SnapshotPath = *snapshot
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "nodectl: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "nodectl: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg runConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, closeDev, err := openDevice(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDev()

	mem, err := loadMemory(cfg)
	if err != nil {
		return err
	}

	rt := module.New(module.Options{
		Device:   dev,
		Config:   mem,
		Identity: cfg.identity(),
	})
	logging.Infof("nodectl: running %q over %s device", cfg.Name, cfg.DeviceKind)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.Run(ctx, cfg.Tick) })
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if cfg.SnapshotPath != "" {
		if saveErr := mem.SaveFile(cfg.SnapshotPath); saveErr != nil {
			logging.Errf("nodectl: snapshot save failed: %v", saveErr)
			if err == nil {
				err = saveErr
			}
		}
	}
	return err
}

// openDevice builds the configured device and returns its teardown.
func openDevice(ctx context.Context, cfg runConfig) (device.Device, func(), error) {
	switch cfg.DeviceKind {
	case deviceLoopback:
		return device.NewLoopback(), func() {}, nil
	case deviceSLCAN:
		d := device.NewSLCAN(device.SLCANConfig{
			Port:         cfg.SerialPort,
			PortBaudrate: cfg.SerialBaud,
			BusKbit:      cfg.BusKbit,
		})
		if err := d.Open(ctx); err != nil {
			return nil, nil, err
		}
		return d, func() { d.Close() }, nil
	case deviceBridge:
		cl, err := bridge.Dial(ctx, bridge.DefaultClientConfig(cfg.BridgeAddr))
		if err != nil {
			return nil, nil, err
		}
		return cl, func() { cl.Close() }, nil
	}
	return nil, nil, fmt.Errorf("nodectl: unknown device %q", cfg.DeviceKind)
}

// loadMemory restores the node memory snapshot, or starts fresh and seeds
// the configured addressing into it.
func loadMemory(cfg runConfig) (*nodecfg.Memory, error) {
	if cfg.SnapshotPath != "" {
		if _, err := os.Stat(cfg.SnapshotPath); err == nil {
			mem, err := nodecfg.LoadFile(cfg.SnapshotPath, cfg.limits())
			if err != nil {
				return nil, err
			}
			logging.Infof("nodectl: restored snapshot %q events=%d", cfg.SnapshotPath, mem.StoredEventCount())
			return mem, nil
		}
	}
	mem := nodecfg.NewMemory(cfg.limits())
	if cfg.CanID != 0 {
		mem.SetCanID(vlcb.NewCanID(cfg.CanID))
	}
	if cfg.NodeNumber != 0 {
		mem.SetModeNormal(vlcb.NodeNumber(cfg.NodeNumber))
	}
	return mem, nil
}

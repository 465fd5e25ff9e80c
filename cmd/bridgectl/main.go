package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/railcan/internal/bridge"
	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "TOML config path (defaults apply when omitted)")
	listen := flag.String("listen", "", "bridge listen address override")
	metrics := flag.String("metrics", "", "metrics listen address override")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := defaultBridgeConfig()
	if *configPath != "" {
		loaded, err := loadBridgeConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bridgectl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *metrics != "" {
		cfg.MetricsAddr = *metrics
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "bridgectl: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "bridgectl: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg bridgeConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, closeDev, err := openDevice(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDev()

	srv := bridge.NewServer(bridge.ServerConfig{
		Name:         cfg.Name,
		ListenAddr:   cfg.ListenAddr,
		PollInterval: cfg.PollEvery,
	}, dev)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(ctx, cfg.MetricsAddr) })
	}
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openDevice(ctx context.Context, cfg bridgeConfig) (device.Device, func(), error) {
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
	}
	return nil, nil, fmt.Errorf("bridgectl: unknown device %q", cfg.DeviceKind)
}

func serveMetrics(ctx context.Context, addr string) error {
	observability.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	logging.Infof("bridgectl: metrics on %q", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("bridgectl: metrics server: %w", err)
	}
	return nil
}

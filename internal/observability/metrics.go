// Package observability owns the prometheus collectors for the long-lived
// daemons. Registration is lazy and idempotent; record helpers are safe to
// call from any goroutine.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Frame flow directions through a bridge.
const (
	DirBusIn  = "bus_in"  // wire -> clients
	DirBusOut = "bus_out" // clients -> wire
)

// Drop reasons.
const (
	DropQueueFull  = "queue_full"
	DropNoTransmit = "no_transmit"
	DropBadFrame   = "bad_frame"
	DropSlowClient = "slow_client"
)

var (
	registerOnce sync.Once

	bridgeFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "railcan",
			Subsystem: "bridge",
			Name:      "frames_total",
			Help:      "Frames forwarded through the bridge by direction.",
		},
		[]string{"bridge", "direction"},
	)
	bridgeDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "railcan",
			Subsystem: "bridge",
			Name:      "frames_dropped_total",
			Help:      "Frames the bridge could not forward.",
		},
		[]string{"bridge", "reason"},
	)
	bridgeClients = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "railcan",
			Subsystem: "bridge",
			Name:      "clients",
			Help:      "Connected bridge clients.",
		},
		[]string{"bridge"},
	)
	devicePollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "railcan",
			Subsystem: "device",
			Name:      "poll_duration_seconds",
			Help:      "Duration of one device service pass.",
			Buckets:   prometheus.ExponentialBuckets(10e-6, 4, 10),
		},
		[]string{"device"},
	)
)

// RegisterMetrics registers every collector exactly once. Record helpers
// call it themselves, so explicit registration is only needed to expose an
// empty scrape before traffic flows.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(bridgeFrames, bridgeDrops, bridgeClients, devicePollDuration)
	})
}

// RecordBridgeFrame counts one forwarded frame.
func RecordBridgeFrame(bridge, direction string) {
	RegisterMetrics()
	bridgeFrames.WithLabelValues(bridge, direction).Inc()
}

// RecordBridgeDrop counts one frame the bridge had to drop.
func RecordBridgeDrop(bridge, reason string) {
	RegisterMetrics()
	bridgeDrops.WithLabelValues(bridge, reason).Inc()
}

// SetBridgeClients tracks the connected client count.
func SetBridgeClients(bridge string, n int) {
	RegisterMetrics()
	bridgeClients.WithLabelValues(bridge).Set(float64(n))
}

// RecordDevicePoll times one device service pass.
func RecordDevicePoll(dev string, d time.Duration) {
	RegisterMetrics()
	devicePollDuration.WithLabelValues(dev).Observe(d.Seconds())
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/railcan/internal/bridge"
	"github.com/danmuck/railcan/internal/device"
)

var rootCmd = &cobra.Command{
	Use:          "bustool",
	Short:        "layout bus utility",
	Long:         "Sniff, inject and template the layout CAN bus.",
	SilenceUsage: true,
}

// Execute runs the tool under ctx. Subcommands stop when ctx does.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

const (
	flagDevice   = "device"
	flagPort     = "port"
	flagBaudrate = "baudrate"
	flagBusKbit  = "kbit"
	flagBridge   = "bridge"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP(flagDevice, "a", "slcan", "device kind: loopback|slcan|bridge")
	pf.StringP(flagPort, "p", "", "serial port for slcan devices")
	pf.IntP(flagBaudrate, "b", 115200, "serial baudrate")
	pf.IntP(flagBusKbit, "k", 125, "bus bitrate in kbit/s")
	pf.String(flagBridge, "", "bridge server address")
}

// openDevice builds the device the persistent flags select.
func openDevice(cmd *cobra.Command) (device.Device, func(), error) {
	ctx := cmd.Context()
	kind, _ := cmd.Flags().GetString(flagDevice)
	switch kind {
	case "loopback":
		return device.NewLoopback(), func() {}, nil
	case "slcan":
		port, _ := cmd.Flags().GetString(flagPort)
		if port == "" {
			return nil, nil, fmt.Errorf("bustool: --%s is required for slcan devices", flagPort)
		}
		baud, _ := cmd.Flags().GetInt(flagBaudrate)
		kbit, _ := cmd.Flags().GetInt(flagBusKbit)
		d := device.NewSLCAN(device.SLCANConfig{Port: port, PortBaudrate: baud, BusKbit: kbit})
		if err := d.Open(ctx); err != nil {
			return nil, nil, err
		}
		return d, func() { d.Close() }, nil
	case "bridge":
		addr, _ := cmd.Flags().GetString(flagBridge)
		if addr == "" {
			return nil, nil, fmt.Errorf("bustool: --%s is required for bridge devices", flagBridge)
		}
		cl, err := bridge.Dial(ctx, bridge.DefaultClientConfig(addr))
		if err != nil {
			return nil, nil, err
		}
		return cl, func() { cl.Close() }, nil
	}
	return nil, nil, fmt.Errorf("bustool: unknown device kind %q", kind)
}

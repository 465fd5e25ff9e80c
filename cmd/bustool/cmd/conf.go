package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const nodeTemplate = `# nodectl configuration
name = "RAILCAN"
device = "loopback" # loopback | slcan | bridge
# serial_port = "/dev/ttyACM0"
# serial_baud = 115200
# bus_kbit = 125
# bridge_addr = "127.0.0.1:5550"

can_id = 0      # 0 lets the node enumerate one
node_number = 0 # 0 starts uninitialized
snapshot_path = "node.toml"
tick_ms = 10

manufacturer = 13
module_id = 1
version_major = 1
version_minor = "a"
version_beta = 0

max_events = 32
event_vars = 2
node_vars = 8
`

const bridgeTemplate = `# bridgectl configuration
name = "bridge"
listen_addr = "127.0.0.1:5550"
device = "loopback" # loopback | slcan
# serial_port = "/dev/ttyUSB0"
# serial_baud = 115200
# bus_kbit = 125
metrics_addr = "127.0.0.1:9102"
poll_us = 1000
`

const (
	flagConfKind  = "kind"
	flagConfOut   = "output"
	flagConfForce = "force"
)

var confCmd = &cobra.Command{
	Use:   "conf",
	Short: "write a config template for nodectl or bridgectl",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString(flagConfKind)
		output, _ := cmd.Flags().GetString(flagConfOut)
		force, _ := cmd.Flags().GetBool(flagConfForce)

		var tmpl string
		switch kind {
		case "node":
			tmpl = nodeTemplate
			if output == "" {
				output = "node-config.toml"
			}
		case "bridge":
			tmpl = bridgeTemplate
			if output == "" {
				output = "bridge-config.toml"
			}
		default:
			return fmt.Errorf("bustool: unknown config kind %q (expected node or bridge)", kind)
		}

		if !force {
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("bustool: %q exists, pass --%s to overwrite", output, flagConfForce)
			}
		}
		if err := os.WriteFile(output, []byte(tmpl), 0o644); err != nil {
			return fmt.Errorf("bustool: write template: %w", err)
		}
		fmt.Printf("wrote %s config template to %s\n", kind, output)
		return nil
	},
}

func init() {
	confCmd.Flags().String(flagConfKind, "node", "config kind: node|bridge")
	confCmd.Flags().String(flagConfOut, "", "output path (defaults per kind)")
	confCmd.Flags().Bool(flagConfForce, false, "overwrite an existing file")
	rootCmd.AddCommand(confCmd)
}

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danmuck/railcan/internal/wire"
)

var (
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	faint  = color.New(color.Faint).SprintfFunc()
)

var sniffCmd = &cobra.Command{
	Use:   "sniff",
	Short: "dump decoded bus traffic until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, closeDev, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer closeDev()

		ctx := cmd.Context()
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			for {
				rx, _, ok := dev.Receive()
				if !ok {
					break
				}
				rx.Consume(func(buf []byte) {
					fmt.Println(formatFrame(buf))
				})
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(sniffCmd)
}

// formatFrame renders one raw frame the way the sniffer prints it:
// timestamp, arbitration fields, hex payload, decoded opcode.
func formatFrame(buf []byte) string {
	var out strings.Builder
	out.WriteString(faint("%s", time.Now().Format("15:04:05.000")))
	out.WriteString(" || ")

	f, err := wire.NewCheckedFrame(buf)
	if err != nil {
		out.WriteString(red("bad frame % X", buf))
		return out.String()
	}

	out.WriteString(green("id=%03d", uint8(f.ID())))
	out.WriteString(fmt.Sprintf(" pri=%-12s", f.Priority()))
	if f.RTR() {
		out.WriteString(yellow("RTR"))
		return out.String()
	}

	payload := f.Payload()
	out.WriteString(fmt.Sprintf("%2d || %-23s|| ", len(payload), hexView(payload)))
	if len(payload) == 0 {
		out.WriteString(yellow("claim"))
		return out.String()
	}

	pkt, err := wire.NewCheckedPacket(payload)
	if err != nil {
		out.WriteString(red("undecodable: %v", err))
		return out.String()
	}
	out.WriteString(yellow("%s", pkt.Opcode()))
	return out.String()
}

func hexView(data []byte) string {
	var hv strings.Builder
	for i, b := range data {
		if i > 0 {
			hv.WriteString(" ")
		}
		hv.WriteString(fmt.Sprintf("%02X", b))
	}
	return hv.String()
}

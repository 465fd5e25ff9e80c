package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/railcan/internal/construct"
	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/vlcb"
	"github.com/danmuck/railcan/internal/wire"
)

const (
	flagSendID  = "id"
	flagSendRTR = "rtr"
)

var sendCmd = &cobra.Command{
	Use:   "send <kind> [args]",
	Short: "inject one packet onto the bus",
	Long: `Inject one packet onto the bus.

Kinds:
  acon <nn> <en>   long accessory on
  acof <nn> <en>   long accessory off
  ason <en>        short accessory on
  asof <en>        short accessory off
  raw <hex>        packet octets verbatim, lead octet included`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkt, err := buildPacket(args)
		if err != nil {
			return err
		}

		dev, closeDev, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer closeDev()

		id, _ := cmd.Flags().GetUint8(flagSendID)
		rtr, _ := cmd.Flags().GetBool(flagSendRTR)
		if err := sendFrame(dev, vlcb.NewCanID(id), rtr, pkt); err != nil {
			return err
		}
		// give buffered drivers a moment to flush before the port closes
		time.Sleep(50 * time.Millisecond)
		fmt.Printf("sent %s\n", hexView(pkt))
		return nil
	},
}

func init() {
	sendCmd.Flags().Uint8(flagSendID, 0x70, "arbitration id to key the frame with")
	sendCmd.Flags().Bool(flagSendRTR, false, "send an RTR frame (enumeration trigger), packet ignored")
	rootCmd.AddCommand(sendCmd)
}

func buildPacket(args []string) ([]byte, error) {
	kind := args[0]
	switch kind {
	case "acon", "acof":
		if len(args) != 3 {
			return nil, fmt.Errorf("bustool: %s takes <nn> <en>", kind)
		}
		nn, err := parseU16(args[1])
		if err != nil {
			return nil, err
		}
		en, err := parseU16(args[2])
		if err != nil {
			return nil, err
		}
		t := vlcb.EventOn
		if kind == "acof" {
			t = vlcb.EventOff
		}
		p, err := construct.Accessory(t, vlcb.NewEventID(vlcb.NodeNumber(nn), en, false), nil)
		if err != nil {
			return nil, err
		}
		return p.Bytes(), nil
	case "ason", "asof":
		if len(args) != 2 {
			return nil, fmt.Errorf("bustool: %s takes <en>", kind)
		}
		en, err := parseU16(args[1])
		if err != nil {
			return nil, err
		}
		t := vlcb.EventOn
		if kind == "asof" {
			t = vlcb.EventOff
		}
		p, err := construct.Accessory(t, vlcb.NewEventID(0, en, true), nil)
		if err != nil {
			return nil, err
		}
		return p.Bytes(), nil
	case "raw":
		if len(args) != 2 {
			return nil, fmt.Errorf("bustool: raw takes <hex>")
		}
		pkt, err := hex.DecodeString(args[1])
		if err != nil {
			return nil, fmt.Errorf("bustool: bad hex %q: %w", args[1], err)
		}
		if _, err := wire.NewCheckedPacket(pkt); err != nil {
			return nil, err
		}
		return pkt, nil
	}
	return nil, fmt.Errorf("bustool: unknown packet kind %q", kind)
}

func parseU16(raw string) (uint16, error) {
	v, err := strconv.ParseUint(raw, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("bustool: bad number %q: %w", raw, err)
	}
	return uint16(v), nil
}

func sendFrame(dev device.Device, id vlcb.CanID, rtr bool, pkt []byte) error {
	tx, ok := dev.Transmit()
	if !ok {
		return fmt.Errorf("bustool: device refused the frame")
	}
	r := wire.FrameRepr{ID: id, Priority: wire.DefaultPriority, RTR: rtr}
	if !rtr {
		r.DataLen = copy(r.Data[:], pkt)
	}
	return tx.Consume(r.BufferLen(), func(buf []byte) error {
		r.Emit(wire.NewFrame(buf))
		return nil
	})
}

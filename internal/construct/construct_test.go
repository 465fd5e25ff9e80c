package construct

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/testutil/testlog"
	"github.com/danmuck/railcan/internal/vlcb"
	"github.com/danmuck/railcan/internal/wire"
)

func TestBuildersEmitDeclaredLength(t *testing.T) {
	testlog.Start(t)
	nn := vlcb.NodeNumber(0x0102)
	cases := []struct {
		name string
		p    Payload
	}{
		{"BusHalt", BusHalt()},
		{"Ack", Ack()},
		{"SendDebug", SendDebug(0x42)},
		{"RestartNode", RestartNode(nn)},
		{"SetNodeNumber", SetNodeNumber(nn)},
		{"ForceEnumeration", ForceEnumeration(nn)},
		{"SetNodeVariable", SetNodeVariable(nn, 3, 0xAA)},
		{"QueryNodeInfo", QueryNodeInfo()},
		{"QueryNodeParameter", QueryNodeParameter(nn, 7)},
		{"WriteAck", WriteAck(nn)},
		{"ConfigError", ConfigError(nn, vlcb.CmdErrTooManyEvents)},
		{"NodeInfoReply", NodeInfoReply(nn, 165, 10, vlcb.FlagConsumer | vlcb.FlagFLiM)},
		{"GenericResponse", GenericResponse(nn, vlcb.OpNVSET, 1, 0)},
		{"Heartbeat", Heartbeat(nn, 9, 0)},
		{"TrackOn", TrackOn()},
		{"ReleaseEngine", ReleaseEngine(5)},
	}
	for _, tc := range cases {
		got := tc.p.Len() - wire.PacketHeaderLen
		want := tc.p.Opcode().DataLen()
		if got != want {
			t.Fatalf("%s: carries %d data octets, lead octet declares %d", tc.name, got, want)
		}
		if _, err := wire.ParsePacket(wire.NewPacket(tc.p.Bytes())); err != nil {
			t.Fatalf("%s: packet codec rejects builder output: %v", tc.name, err)
		}
	}
	logging.Logf("construct: %d builders consistent with opcode table", len(cases))
}

func TestSetNodeNumberWireForm(t *testing.T) {
	testlog.Start(t)
	p := SetNodeNumber(vlcb.NodeNumber(0xABCD))
	want := []byte{byte(vlcb.OpSNN), 0xAB, 0xCD}
	if !bytes.Equal(p.Bytes(), want) {
		t.Fatalf("SNN wire form %x, want %x", p.Bytes(), want)
	}
}

func TestSetCanIDRange(t *testing.T) {
	testlog.Start(t)
	nn := vlcb.NodeNumber(7)
	if _, err := SetCanID(nn, 0); !errors.Is(err, ErrBadValue) {
		t.Fatalf("id 0 accepted: %v", err)
	}
	if _, err := SetCanID(nn, vlcb.NewCanID(0x64)); !errors.Is(err, ErrBadValue) {
		t.Fatalf("id 0x64 accepted: %v", err)
	}
	p, err := SetCanID(nn, vlcb.NewCanID(0x63))
	if err != nil {
		t.Fatalf("id 0x63 rejected: %v", err)
	}
	want := []byte{byte(vlcb.OpCANID), 0x00, 0x07, 0x63}
	if !bytes.Equal(p.Bytes(), want) {
		t.Fatalf("CANID wire form %x, want %x", p.Bytes(), want)
	}
}

func TestModuleNameReplySpaceFills(t *testing.T) {
	testlog.Start(t)
	p, err := ModuleNameReply("PAN")
	if err != nil {
		t.Fatalf("short name rejected: %v", err)
	}
	want := []byte{byte(vlcb.OpNAME), 'P', 'A', 'N', ' ', ' ', ' ', ' '}
	if !bytes.Equal(p.Bytes(), want) {
		t.Fatalf("NAME wire form %x, want %x", p.Bytes(), want)
	}
	if _, err := ModuleNameReply("TOOLONGNAME"); !errors.Is(err, ErrBadLength) {
		t.Fatalf("oversize name accepted: %v", err)
	}
	if _, err := ModuleNameReply("P\x01N"); !errors.Is(err, ErrBadValue) {
		t.Fatalf("control octet accepted: %v", err)
	}
}

func TestAccessoryPicksFamilyByEventForm(t *testing.T) {
	testlog.Start(t)
	long := vlcb.NewEventID(0x0102, 0x0304, false)
	short := vlcb.NewEventID(0, 0x0304, true)

	p, err := Accessory(vlcb.EventOn, long, nil)
	if err != nil {
		t.Fatalf("long on: %v", err)
	}
	if p.Opcode() != vlcb.OpACON {
		t.Fatalf("long on lead octet %v, want ACON", p.Opcode())
	}
	p, err = Accessory(vlcb.EventOff, short, []byte{0xAA, 0xBB})
	if err != nil {
		t.Fatalf("short off with data: %v", err)
	}
	want := []byte{byte(vlcb.OpASOF2), 0x00, 0x00, 0x03, 0x04, 0xAA, 0xBB}
	if !bytes.Equal(p.Bytes(), want) {
		t.Fatalf("ASOF2 wire form %x, want %x", p.Bytes(), want)
	}

	if _, err := Accessory(vlcb.EventOn, long, make([]byte, 4)); !errors.Is(err, ErrBadLength) {
		t.Fatalf("four attached octets accepted: %v", err)
	}
	// The short status family never got a one-octet variant assigned.
	if _, err := AccessoryResponse(vlcb.EventOn, short, []byte{1}); !errors.Is(err, ErrBadLength) {
		t.Fatalf("ARSON1 gap not reported: %v", err)
	}
}

func TestUnlearnEventRejectsShortIDs(t *testing.T) {
	testlog.Start(t)
	if _, err := UnlearnEvent(vlcb.NewEventID(0, 9, true)); !errors.Is(err, ErrShortEvent) {
		t.Fatalf("short event unlearn accepted: %v", err)
	}
}

func TestFastClockValidation(t *testing.T) {
	testlog.Start(t)
	if _, err := FastClock(60, 10, 1, vlcb.Monday, vlcb.June, 12, 20); !errors.Is(err, ErrBadValue) {
		t.Fatalf("minute 60 accepted: %v", err)
	}
	if _, err := FastClock(0, 24, 1, vlcb.Monday, vlcb.June, 12, 20); !errors.Is(err, ErrBadValue) {
		t.Fatalf("hour 24 accepted: %v", err)
	}
	if _, err := FastClock(30, 10, 1, vlcb.Monday, vlcb.June, 0, 20); !errors.Is(err, ErrBadValue) {
		t.Fatalf("month day 0 accepted: %v", err)
	}
	p, err := FastClock(30, 10, 4, vlcb.Friday, vlcb.June, 12, -5)
	if err != nil {
		t.Fatalf("valid clock rejected: %v", err)
	}
	temp := int8(-5)
	want := []byte{byte(vlcb.OpFCLK), 30, 10, vlcb.PackWeekdayMonth(vlcb.Friday, vlcb.June), 4, 12, byte(temp)}
	if !bytes.Equal(p.Bytes(), want) {
		t.Fatalf("FCLK wire form %x, want %x", p.Bytes(), want)
	}
}

func TestExtendedSelectsLeadOctetByDataLength(t *testing.T) {
	testlog.Start(t)
	for n := 0; n <= maxExtendedData; n++ {
		data := bytes.Repeat([]byte{0x5A}, n)
		p, err := Extended(0xC4, data)
		if err != nil {
			t.Fatalf("%d data octets rejected: %v", n, err)
		}
		wantOp, _ := vlcb.ExtensionOpcode(n)
		if p.Opcode() != wantOp {
			t.Fatalf("%d data octets picked %v, want %v", n, p.Opcode(), wantOp)
		}
		if p.Bytes()[1] != 0xC4 {
			t.Fatalf("%d data octets lost the extension octet: %x", n, p.Bytes())
		}
		if p.Len() != wire.PacketHeaderLen+1+n {
			t.Fatalf("%d data octets emitted %d total", n, p.Len())
		}
	}
	if _, err := Extended(0xC4, make([]byte, 7)); !errors.Is(err, ErrBadLength) {
		t.Fatalf("seven extended data octets accepted: %v", err)
	}
	if ExtendedNoData(0xC4).Opcode() != vlcb.OpEXTC {
		t.Fatalf("ExtendedNoData picked %v", ExtendedNoData(0xC4).Opcode())
	}
	logging.Logf("construct/ext: lead octet tracks data length across the family")
}

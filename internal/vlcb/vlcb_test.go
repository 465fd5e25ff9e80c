package vlcb

import (
	"testing"

	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/testutil/testlog"
)

func TestNewCanIDMasksToSevenBits(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		raw  uint8
		want CanID
	}{
		{0x00, 0x00},
		{0x7F, 0x7F},
		{0x80, 0x00},
		{0xFF, 0x7F},
		{0xAA, 0x2A},
	}
	for _, tc := range cases {
		got := NewCanID(tc.raw)
		if got != tc.want {
			t.Fatalf("NewCanID(0x%02X) = 0x%02X, want 0x%02X", tc.raw, uint8(got), uint8(tc.want))
		}
	}
	logging.Logf("vlcb/canid: masking holds for all cases")
}

func TestNodeNumberBytesRoundTrip(t *testing.T) {
	testlog.Start(t)
	n := NodeNumber(0x1234)
	b := n.Bytes()
	if b[0] != 0x12 || b[1] != 0x34 {
		t.Fatalf("Bytes() = %v, want big-endian [0x12 0x34]", b)
	}
	if NodeNumberFromBytes(b) != n {
		t.Fatalf("round trip lost value: %v", NodeNumberFromBytes(b))
	}
	if !NodeNumber(0).Unassigned() {
		t.Fatalf("zero node number must report unassigned")
	}
	if n.Unassigned() {
		t.Fatalf("nonzero node number must not report unassigned")
	}
}

func TestEventIDShortNeverEqualsLong(t *testing.T) {
	testlog.Start(t)
	raw := [4]byte{0x00, 0x00, 0x00, 0x2A}
	long := EventIDFromBytes(raw)
	short := ShortEventIDFromBytes(raw)
	if long == short {
		t.Fatalf("short and long ids with identical bytes must differ: %v vs %v", long, short)
	}
	if long.Bytes() != short.Bytes() {
		t.Fatalf("wire form should match when node part is zero: %v vs %v", long.Bytes(), short.Bytes())
	}
	logging.Logf("vlcb/eventid: short=%v long=%v distinct with equal bytes", short, long)
}

func TestNewEventIDNormalizesShortNodePart(t *testing.T) {
	testlog.Start(t)
	short := NewEventID(NodeNumber(0x0505), 7, true)
	if short.Node != 0 {
		t.Fatalf("short id kept a node part: %v", short)
	}
	same := ShortEventIDFromBytes(short.Bytes())
	if short != same {
		t.Fatalf("short id did not survive its own wire form: %v vs %v", short, same)
	}
	long := NewEventID(NodeNumber(0x0505), 7, false)
	if long.Node != 0x0505 {
		t.Fatalf("long id lost its node part: %v", long)
	}
}

func TestEventIDFromBytesSplitsNodeAndIndex(t *testing.T) {
	testlog.Start(t)
	id := EventIDFromBytes([4]byte{0xBE, 0xEF, 0x01, 0x02})
	if id.Node != 0xBEEF || id.Index != 0x0102 || id.Short {
		t.Fatalf("unexpected parse: %+v", id)
	}
}

func TestOpcodeDataLenFollowsTopBits(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		op   Opcode
		want int
	}{
		{OpACK, 0},
		{OpDKEEP, 1},
		{OpSNN, 2},
		{OpNVRD, 3},
		{OpACON, 4},
		{OpACON1, 5},
		{OpEVLRN, 6},
		{OpDTXC, 7},
		{OpEXTC6, 7},
	}
	for _, tc := range cases {
		if got := tc.op.DataLen(); got != tc.want {
			t.Fatalf("%v.DataLen() = %d, want %d", tc.op, got, tc.want)
		}
	}
}

func TestOpcodeTableRecognition(t *testing.T) {
	testlog.Start(t)
	if !OpACON.Known() {
		t.Fatalf("ACON must be recognized")
	}
	if Opcode(0x0B).Known() {
		t.Fatalf("0x0B has no assignment and must be unrecognized")
	}
	if s := OpACON.String(); s != "ACON" {
		t.Fatalf("String() = %q, want ACON", s)
	}
	if s := Opcode(0x0B).String(); s != "Opcode(0x0B)" {
		t.Fatalf("unknown String() = %q", s)
	}
}

func TestExtensionOpcodeSelection(t *testing.T) {
	testlog.Start(t)
	want := []Opcode{OpEXTC, OpEXTC1, OpEXTC2, OpEXTC3, OpEXTC4, OpEXTC5, OpEXTC6}
	for n, wantOp := range want {
		op, ok := ExtensionOpcode(n)
		if !ok || op != wantOp {
			t.Fatalf("ExtensionOpcode(%d) = %v ok=%v, want %v", n, op, ok, wantOp)
		}
		if !op.IsExtension() {
			t.Fatalf("%v must report IsExtension", op)
		}
	}
	if _, ok := ExtensionOpcode(7); ok {
		t.Fatalf("seven extension data octets do not fit a packet")
	}
	if OpACON.IsExtension() {
		t.Fatalf("ACON is not an extension lead octet")
	}
}

func TestNodeFlagsSetAndClear(t *testing.T) {
	testlog.Start(t)
	f := NodeFlags(0).With(FlagConsumer).With(FlagFLiM)
	if !f.Has(FlagConsumer) || !f.Has(FlagFLiM) || f.Has(FlagProducer) {
		t.Fatalf("unexpected flag word: %08b", uint8(f))
	}
	f = f.Without(FlagConsumer)
	if f.Has(FlagConsumer) {
		t.Fatalf("Without failed to clear consumer bit: %08b", uint8(f))
	}
}

func TestPackWeekdayMonthRoundTrip(t *testing.T) {
	testlog.Start(t)
	wdmon := PackWeekdayMonth(Wednesday, October)
	if wdmon != 0x54 {
		t.Fatalf("PackWeekdayMonth(Wednesday, October) = 0x%02X, want 0x54", wdmon)
	}
	wd, m := UnpackWeekdayMonth(wdmon)
	if wd != Wednesday || m != October {
		t.Fatalf("round trip: got %v %v from 0x%02X", wd, m, wdmon)
	}
}

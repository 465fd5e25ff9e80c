package module

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/railcan/internal/construct"
	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/nodecfg"
	"github.com/danmuck/railcan/internal/testutil/testlog"
	"github.com/danmuck/railcan/internal/vlcb"
)

func testIdentity() Identity {
	return Identity{
		Manufacturer:  165,
		ModuleID:      10,
		Name:          "PANEL",
		Version:       Version{Major: 2, Minor: 'a', Beta: 0},
		Flags:         vlcb.FlagConsumer | vlcb.FlagProducer | vlcb.FlagFLiM,
		MaxEvents:     32,
		EventVarCount: 2,
		NodeVarCount:  8,
	}
}

func testConfig() *nodecfg.Memory {
	cfg := nodecfg.NewMemory(nodecfg.DefaultLimits())
	cfg.SetModeNormal(0x0456)
	cfg.SetCanID(vlcb.NewCanID(9))
	return cfg
}

func TestParamsTableMatchesIdentity(t *testing.T) {
	testlog.Start(t)
	p := NewParams(testIdentity())
	cases := []struct {
		index uint8
		want  uint8
	}{
		{0, ParamCount},
		{ParamManufacturer, 165},
		{ParamMinorVersion, 'a'},
		{ParamModuleID, 10},
		{ParamMaxEvents, 32},
		{ParamEventVarCount, 2},
		{ParamNodeVarCount, 8},
		{ParamMajorVersion, 2},
		{ParamFlags, uint8(vlcb.FlagConsumer | vlcb.FlagProducer | vlcb.FlagFLiM)},
		{ParamBusType, busTypeCAN},
		{ParamBetaVersion, 0},
	}
	for _, tc := range cases {
		got, ok := p.Get(tc.index)
		if !ok || got != tc.want {
			t.Fatalf("param %d = %d (ok=%v), want %d", tc.index, got, ok, tc.want)
		}
	}
	if _, ok := p.Get(ParamCount + 1); ok {
		t.Fatalf("index past the table readable")
	}
	block := p.SetupBlock()
	if block[0] != 165 || block[6] != 2 {
		t.Fatalf("setup block %v does not mirror params 1..7", block)
	}
	logging.Logf("module/params: table consistent, setup block %v", block)
}

func TestRuntimeSeedsAddressingFromConfig(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig()
	r := New(Options{Device: device.NewLoopback(), Config: cfg, Identity: testIdentity()})
	if id, _ := r.Interface().HardwareAddr().Can(); id != 9 {
		t.Fatalf("interface seeded with can id %v", id)
	}
	if r.Interface().NodeNumber() != 0x0456 {
		t.Fatalf("interface seeded with node number %v", r.Interface().NodeNumber())
	}
	nn, manu, mod, flags := r.NodeInfo()
	if nn != 0x0456 || manu != 165 || mod != 10 || !flags.Has(vlcb.FlagFLiM) {
		t.Fatalf("node info %v %d %d %v", nn, manu, mod, flags)
	}
}

// countingUI records the calls the runtime owes the operator surface.
type countingUI struct {
	polls    int
	activity int
	pressed  bool
}

func (u *countingUI) Poll(time.Time)            { u.polls++ }
func (u *countingUI) IsMainSwitchPressed() bool { return u.pressed }
func (u *countingUI) IndicateActivity()         { u.activity++ }

func TestPollMovesPacketsAndIndicatesActivity(t *testing.T) {
	testlog.Start(t)
	ui := &countingUI{}
	r := New(Options{Device: device.NewLoopback(), Config: testConfig(), Identity: testIdentity(), UI: ui})

	pkt := construct.Ack()
	if err := r.Send(pkt.Bytes()); err != nil {
		t.Fatalf("send: %v", err)
	}
	// One poll flushes the send and, over the loopback, delivers it right
	// back into the module socket.
	if !r.Poll(time.Unix(100, 0)) {
		t.Fatalf("poll with queued work reported no progress")
	}
	if ui.polls != 1 || ui.activity != 1 {
		t.Fatalf("ui saw polls=%d activity=%d", ui.polls, ui.activity)
	}
	got, err := r.ModuleSocket().Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if !bytes.Equal(got, pkt.Bytes()) {
		t.Fatalf("looped packet %x, want %x", got, pkt.Bytes())
	}
	// A quiet follow-up poll moves nothing and leaves the indicator alone.
	if r.Poll(time.Unix(101, 0)) {
		t.Fatalf("idle poll reported progress")
	}
	if ui.activity != 1 {
		t.Fatalf("idle poll indicated activity")
	}
}

func TestMainSwitchPressRequestsEnumerationOnce(t *testing.T) {
	testlog.Start(t)
	ui := &countingUI{pressed: true}
	r := New(Options{Device: device.NewLoopback(), Config: testConfig(), Identity: testIdentity(), UI: ui})

	r.Poll(time.Unix(200, 0))
	if !r.Interface().Enumerating() {
		t.Fatalf("press did not request an enumeration round")
	}
	// Holding the switch across polls must not restart the round forever;
	// the window opened on the first poll and closes on its deadline.
	r.Poll(time.Unix(200, 0).Add(50 * time.Millisecond))
	r.Poll(time.Unix(201, 0))
	if r.Interface().Enumerating() {
		t.Fatalf("held switch kept the round open past its window")
	}
}

func TestEnumerationOutcomeLandsInConfig(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig()
	r := New(Options{Device: device.NewLoopback(), Config: cfg, Identity: testIdentity()})

	now := time.Unix(300, 0)
	r.Interface().StartEnumeration(now)
	r.Poll(now)                             // window opens
	r.Poll(now.Add(150 * time.Millisecond)) // window closes, id resolves
	if cfg.CanID() != 1 {
		t.Fatalf("config holds can id %v after a silent round, want 1", cfg.CanID())
	}
}

func TestRunStopsWithContext(t *testing.T) {
	testlog.Start(t)
	r := New(Options{Device: device.NewLoopback(), Config: testConfig(), Identity: testIdentity()})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := r.Run(ctx, time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("run returned %v", err)
	}
}

package iface

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/socket"
	"github.com/danmuck/railcan/internal/storage"
	"github.com/danmuck/railcan/internal/testutil/testlog"
	"github.com/danmuck/railcan/internal/vlcb"
	"github.com/danmuck/railcan/internal/wire"
)

// scriptDevice is an in-test transport: rx frames are handed out in order
// and transmits draw from a fixed token budget. Paired reply tokens bypass
// the budget so ingress behavior can be scripted independently.
type scriptDevice struct {
	rx      [][]byte
	txSlots int
	sent    [][]byte
}

func (d *scriptDevice) Capabilities() device.Capabilities {
	return device.CanCapabilities()
}

func (d *scriptDevice) Receive() (device.RxToken, device.TxToken, bool) {
	if len(d.rx) == 0 {
		return nil, nil, false
	}
	buf := d.rx[0]
	d.rx = d.rx[1:]
	return scriptRxToken{buf: buf}, scriptTxToken{dev: d}, true
}

func (d *scriptDevice) Transmit() (device.TxToken, bool) {
	if d.txSlots <= 0 {
		return nil, false
	}
	d.txSlots--
	return scriptTxToken{dev: d}, true
}

type scriptRxToken struct{ buf []byte }

func (t scriptRxToken) Consume(f func(buf []byte)) {
	f(t.buf)
}

type scriptTxToken struct{ dev *scriptDevice }

func (t scriptTxToken) Consume(length int, f func(buf []byte) error) error {
	buf := make([]byte, length)
	if err := f(buf); err != nil {
		return err
	}
	t.dev.sent = append(t.dev.sent, buf)
	return nil
}

func newTestLongMsg(slots, bytes int) *socket.LongMsg {
	rx := storage.NewPacketBuffer(make([]storage.PacketMetadata, slots), make([]byte, bytes))
	tx := storage.NewPacketBuffer(make([]storage.PacketMetadata, slots), make([]byte, bytes))
	return socket.NewLongMsg(rx, tx)
}

func newTestInterface(dev device.Device, id uint8) *Interface {
	return New(Config{
		HardwareAddr: wire.CanAddress(vlcb.NewCanID(id)),
		NodeNumber:   vlcb.NodeNumber(0x0101),
	}, dev)
}

func busFrame(id uint8, pkt ...byte) []byte {
	buf := make([]byte, wire.FrameHeaderLen+len(pkt))
	r := wire.FrameRepr{ID: vlcb.NewCanID(id), Priority: wire.DefaultPriority}
	r.DataLen = copy(r.Data[:], pkt)
	r.Emit(wire.NewFrame(buf))
	return buf
}

func rtrFrame(id uint8) []byte {
	buf := make([]byte, wire.FrameHeaderLen)
	r := wire.FrameRepr{ID: vlcb.NewCanID(id), Priority: wire.DefaultPriority, RTR: true}
	r.Emit(wire.NewFrame(buf))
	return buf
}

func parseSent(t *testing.T, buf []byte) wire.FrameRepr {
	t.Helper()
	f, err := wire.NewCheckedFrame(buf)
	if err != nil {
		t.Fatalf("sent frame does not parse: %v", err)
	}
	r, err := wire.ParseFrame(f)
	if err != nil {
		t.Fatalf("sent frame does not parse: %v", err)
	}
	return r
}

func TestPollReachesFixedPoint(t *testing.T) {
	testlog.Start(t)
	dev := &scriptDevice{
		rx: [][]byte{
			busFrame(9, 0x90, 0x01, 0x01, 0x00, 0x01),
			busFrame(9, 0x91, 0x01, 0x01, 0x00, 0x02),
			busFrame(9, 0x00),
		},
		txSlots: 8,
	}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 1))
	sk := newTestModule(4, 32)
	set.Add(sk)

	out := [][]byte{
		{0x90, 0x02, 0x02, 0x00, 0x07},
		{0x00},
	}
	for _, pkt := range out {
		if err := sk.SendSlice(pkt); err != nil {
			t.Fatalf("SendSlice(%x) = %v", pkt, err)
		}
	}

	logging.Logf("iface/fixed-point: one poll drains both directions")
	if !ifc.Poll(time.Now(), dev, set) {
		t.Fatalf("Poll with pending work reported no progress")
	}

	if len(dev.sent) != len(out) {
		t.Fatalf("device sent %d frames, want %d", len(dev.sent), len(out))
	}
	for n, frame := range dev.sent {
		r := parseSent(t, frame)
		if r.ID != vlcb.NewCanID(7) {
			t.Fatalf("sent frame %d carries id %v, want can:7", n, r.ID)
		}
		if !bytes.Equal(r.Payload(), out[n]) {
			t.Fatalf("sent frame %d payload = %x, want %x", n, r.Payload(), out[n])
		}
	}

	for n, want := range [][]byte{
		{0x90, 0x01, 0x01, 0x00, 0x01},
		{0x91, 0x01, 0x01, 0x00, 0x02},
		{0x00},
	} {
		got, err := sk.Recv()
		if err != nil {
			t.Fatalf("Recv %d = %v", n, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Recv %d = %x, want %x", n, got, want)
		}
	}

	if ifc.Poll(time.Now(), dev, set) {
		t.Fatalf("Poll at the fixed point reported progress")
	}
}

func TestPollEgressStopsWhenTransmitExhausted(t *testing.T) {
	testlog.Start(t)
	dev := &scriptDevice{txSlots: 1}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 1))
	sk := newTestModule(4, 32)
	set.Add(sk)

	for _, pkt := range [][]byte{{0x00}, {0x21, 0x05}, {0x22, 0x06}} {
		if err := sk.SendSlice(pkt); err != nil {
			t.Fatalf("SendSlice(%x) = %v", pkt, err)
		}
	}

	if !ifc.Poll(time.Now(), dev, set) {
		t.Fatalf("Poll with one free slot reported no progress")
	}
	if len(dev.sent) != 1 {
		t.Fatalf("device sent %d frames past its budget, want 1", len(dev.sent))
	}

	// The undelivered packets stayed queued.
	now := time.Now()
	if at, ok := ifc.PollAt(now, set); !ok || !at.Equal(now) {
		t.Fatalf("PollAt with retained packets = %v ok=%v, want immediate", at, ok)
	}

	dev.txSlots = 8
	if !ifc.Poll(time.Now(), dev, set) {
		t.Fatalf("Poll after the budget refill reported no progress")
	}
	if len(dev.sent) != 3 {
		t.Fatalf("device sent %d frames total, want 3", len(dev.sent))
	}
	repr := parseSent(t, dev.sent[1])
	if got := repr.Payload(); !bytes.Equal(got, []byte{0x21, 0x05}) {
		t.Fatalf("retained packet resent out of order: %x", got)
	}
}

func TestPollRoutesBySelector(t *testing.T) {
	testlog.Start(t)
	dtxc := []byte{0xE9, 1, 2, 3, 4, 5, 6, 7}
	ack := []byte{0x00}
	dev := &scriptDevice{
		rx: [][]byte{
			busFrame(3, dtxc...),
			busFrame(3, ack...),
		},
	}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 2))
	mod := newTestModule(4, 32)
	long := newTestLongMsg(4, 32)
	set.Add(mod)
	set.Add(long)

	ifc.Poll(time.Now(), dev, set)

	got, err := long.Recv()
	if err != nil {
		t.Fatalf("stream socket Recv = %v", err)
	}
	if !bytes.Equal(got, dtxc) {
		t.Fatalf("stream socket received %x, want %x", got, dtxc)
	}
	if _, err := long.Recv(); !errors.Is(err, socket.ErrExhausted) {
		t.Fatalf("stream socket saw more than its own traffic")
	}

	got, err = mod.Recv()
	if err != nil {
		t.Fatalf("module socket Recv = %v", err)
	}
	if !bytes.Equal(got, ack) {
		t.Fatalf("module socket received %x, want %x", got, ack)
	}
}

func TestPollDiscardsMalformedFrames(t *testing.T) {
	testlog.Start(t)
	// A truncated header, an overwide frame, a lead octet declaring more
	// payload than the frame holds, and an unrecognized opcode.
	dev := &scriptDevice{
		rx: [][]byte{
			{0x00},
			make([]byte, 13),
			busFrame(3, 0x90, 1, 2),
			busFrame(3, 0x0B),
		},
	}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 1))
	sk := newTestModule(4, 32)
	set.Add(sk)

	if !ifc.Poll(time.Now(), dev, set) {
		t.Fatalf("consuming the junk is progress, Poll said otherwise")
	}
	if _, err := sk.Recv(); !errors.Is(err, socket.ErrExhausted) {
		t.Fatalf("a malformed frame reached a socket")
	}
	if ifc.Poll(time.Now(), dev, set) {
		t.Fatalf("Poll after the junk drained reported progress")
	}
}

func TestPollAnswersEnumQuery(t *testing.T) {
	testlog.Start(t)
	dev := &scriptDevice{rx: [][]byte{rtrFrame(3)}}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 1))
	set.Add(newTestModule(4, 32))

	ifc.Poll(time.Now(), dev, set)

	if len(dev.sent) != 1 {
		t.Fatalf("device sent %d frames, want the one claim", len(dev.sent))
	}
	r := parseSent(t, dev.sent[0])
	if r.ID != vlcb.NewCanID(7) || r.RTR || r.DataLen != 0 {
		t.Fatalf("claim frame = %v, want empty non-rtr frame from can:7", &r)
	}
}

func TestEnumerationRoundRebindsInterfaceID(t *testing.T) {
	testlog.Start(t)
	dev := &scriptDevice{txSlots: 8}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 1))
	sk := newTestModule(4, 32)
	set.Add(sk)

	t0 := time.Now()
	ifc.StartEnumeration(t0)
	if !ifc.Enumerating() {
		t.Fatalf("Enumerating() false right after the request")
	}

	// Opening poll, then claims for the low ids arrive during the window.
	ifc.Poll(t0, dev, set)
	dev.rx = [][]byte{busFrame(1), busFrame(2), busFrame(3)}
	ifc.Poll(t0.Add(10*time.Millisecond), dev, set)
	if !ifc.Enumerating() {
		t.Fatalf("window closed early")
	}

	ifc.Poll(t0.Add(enumWindow+50*time.Millisecond), dev, set)
	if ifc.Enumerating() {
		t.Fatalf("round still open past its window")
	}
	if id, ok := ifc.HardwareAddr().Can(); !ok || id != vlcb.NewCanID(4) {
		t.Fatalf("resolved address = %v, want can:4", ifc.HardwareAddr())
	}

	// Egress now stamps the won id.
	if err := sk.SendSlice([]byte{0x00}); err != nil {
		t.Fatalf("SendSlice = %v", err)
	}
	ifc.Poll(t0.Add(enumWindow+60*time.Millisecond), dev, set)
	if len(dev.sent) == 0 {
		t.Fatalf("nothing egressed after the round resolved")
	}
	if r := parseSent(t, dev.sent[len(dev.sent)-1]); r.ID != vlcb.NewCanID(4) {
		t.Fatalf("egress still stamps %v after winning can:4", r.ID)
	}
}

func TestPollAtOrdersWakeups(t *testing.T) {
	testlog.Start(t)
	dev := &scriptDevice{}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 2))
	mod := newTestModule(4, 32)
	long := newTestLongMsg(4, 32)
	set.Add(mod)
	set.Add(long)

	now := time.Now()
	if _, ok := ifc.PollAt(now, set); ok {
		t.Fatalf("idle interface scheduled a wakeup")
	}
	if _, ok := ifc.PollDelay(now, set); ok {
		t.Fatalf("idle interface scheduled a sleep budget")
	}

	deadline := now.Add(300 * time.Millisecond)
	long.SetReassemblyDeadline(deadline)
	if at, ok := ifc.PollAt(now, set); !ok || !at.Equal(deadline) {
		t.Fatalf("PollAt = %v ok=%v, want the reassembly deadline", at, ok)
	}
	if d, ok := ifc.PollDelay(now, set); !ok || d != 300*time.Millisecond {
		t.Fatalf("PollDelay = %v ok=%v, want 300ms", d, ok)
	}

	// A pending send beats any deadline.
	if err := mod.SendSlice([]byte{0x00}); err != nil {
		t.Fatalf("SendSlice = %v", err)
	}
	if at, ok := ifc.PollAt(now, set); !ok || !at.Equal(now) {
		t.Fatalf("PollAt with a pending send = %v ok=%v, want now", at, ok)
	}
	if d, ok := ifc.PollDelay(now, set); !ok || d != 0 {
		t.Fatalf("PollDelay with a pending send = %v ok=%v, want 0", d, ok)
	}
}

func TestPollAtCoversEnumerationDeadline(t *testing.T) {
	testlog.Start(t)
	dev := &scriptDevice{}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 1))
	set.Add(newTestModule(4, 32))

	t0 := time.Now()
	ifc.StartEnumeration(t0)
	if at, ok := ifc.PollAt(t0.Add(time.Millisecond), set); !ok || !at.Equal(t0) {
		t.Fatalf("pending round: PollAt = %v ok=%v, want %v", at, ok, t0)
	}

	ifc.Poll(t0, dev, set)
	if at, ok := ifc.PollAt(t0.Add(time.Millisecond), set); !ok || !at.Equal(t0.Add(enumWindow)) {
		t.Fatalf("open window: PollAt = %v ok=%v, want %v", at, ok, t0.Add(enumWindow))
	}
}

type shiftingCapsDevice struct {
	scriptDevice
	polled bool
}

func (d *shiftingCapsDevice) Capabilities() device.Capabilities {
	caps := device.CanCapabilities()
	if d.polled {
		caps.MaxTransmissionUnit = 5
	}
	d.polled = true
	return caps
}

func TestPollPanicsWhenCapabilitiesShift(t *testing.T) {
	testlog.Start(t)
	dev := &shiftingCapsDevice{}
	ifc := newTestInterface(dev, 7)
	set := NewSocketSet(make([]SocketStorage, 0))

	defer func() {
		if recover() == nil {
			t.Fatalf("Poll against shifted capabilities did not panic")
		}
	}()
	ifc.Poll(time.Now(), dev, set)
}

func TestInterfaceAddressing(t *testing.T) {
	testlog.Start(t)
	dev := &scriptDevice{}
	ifc := newTestInterface(dev, 7)

	if nn := ifc.NodeNumber(); nn != vlcb.NodeNumber(0x0101) {
		t.Fatalf("NodeNumber() = %v, want nn:257", nn)
	}
	ifc.SetNodeNumber(vlcb.NodeNumber(0x0202))
	if nn := ifc.NodeNumber(); nn != vlcb.NodeNumber(0x0202) {
		t.Fatalf("NodeNumber() after set = %v, want nn:514", nn)
	}

	ifc.SetHardwareAddr(wire.CanAddress(vlcb.NewCanID(9)))
	if id, ok := ifc.HardwareAddr().Can(); !ok || id != vlcb.NewCanID(9) {
		t.Fatalf("HardwareAddr() after set = %v, want can:9", ifc.HardwareAddr())
	}
}

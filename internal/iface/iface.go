package iface

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/socket"
	"github.com/danmuck/railcan/internal/vlcb"
	"github.com/danmuck/railcan/internal/wire"
)

// errTransmitExhausted flows from the egress emit closure back through a
// socket's Dispatch when the device has no transmit slot. The packet stays
// queued for the next poll.
var errTransmitExhausted = errors.New("iface: device transmit exhausted")

// Config seeds an Interface with its bus identity.
type Config struct {
	// HardwareAddr is the link address on the device's medium. Its kind
	// must match the device, zero values included.
	HardwareAddr wire.HardwareAddress
	// NodeNumber is the layout-wide address. Zero means unassigned.
	NodeNumber vlcb.NodeNumber
}

// Interface binds a socket set to one device and moves packets between
// them. It owns the addressing state; sockets never see frame headers and
// devices never see packet contents.
type Interface struct {
	caps device.Capabilities
	addr wire.HardwareAddress
	node vlcb.NodeNumber
	enum enumerator
}

// pollContext is the per-poll snapshot ingress and egress read from. The
// device itself is a parameter of each poll, never retained.
type pollContext struct {
	now  time.Time
	caps device.Capabilities
	id   vlcb.CanID
	node vlcb.NodeNumber
}

// New captures the device's capabilities and builds an interface around
// cfg. The device is only probed, not retained; pass it again to Poll.
func New(cfg Config, dev device.Device) *Interface {
	caps := dev.Capabilities()
	if !mediumAccepts(caps.Medium, cfg.HardwareAddr.Kind()) {
		panic(fmt.Sprintf("iface: %v address on %v medium", cfg.HardwareAddr.Kind(), caps.Medium))
	}
	return &Interface{
		caps: caps,
		addr: cfg.HardwareAddr,
		node: cfg.NodeNumber,
	}
}

func mediumAccepts(m device.Medium, k wire.AddressKind) bool {
	switch m {
	case device.MediumCan:
		return k == wire.AddressCan
	}
	return false
}

// Capabilities returns the transport properties captured at construction.
func (i *Interface) Capabilities() device.Capabilities {
	return i.caps
}

// HardwareAddr returns the current link address.
func (i *Interface) HardwareAddr() wire.HardwareAddress {
	return i.addr
}

// SetHardwareAddr replaces the link address. A kind that does not fit the
// captured medium is a programming error and panics.
func (i *Interface) SetHardwareAddr(addr wire.HardwareAddress) {
	if !mediumAccepts(i.caps.Medium, addr.Kind()) {
		panic(fmt.Sprintf("iface: %v address on %v medium", addr.Kind(), i.caps.Medium))
	}
	i.addr = addr
}

// NodeNumber returns the layout-wide address.
func (i *Interface) NodeNumber() vlcb.NodeNumber {
	return i.node
}

// SetNodeNumber replaces the layout-wide address.
func (i *Interface) SetNodeNumber(nn vlcb.NodeNumber) {
	i.node = nn
}

func (i *Interface) canID() vlcb.CanID {
	id, _ := i.addr.Can()
	return id
}

// StartEnumeration requests an arbitration-id enumeration round. The
// window opens on the next poll; emitting the query frame is left to the
// caller, this machine only tracks claims and resolves the winner.
func (i *Interface) StartEnumeration(now time.Time) {
	i.enum.request(now)
	logging.Debugf("iface.StartEnumeration id=%v", i.canID())
}

// Enumerating reports whether a round is pending or has its window open.
func (i *Interface) Enumerating() bool {
	return i.enum.phase != enumIdle
}

// Poll services the device and every socket in the set until a full
// ingress+egress pass moves nothing, then reports whether any pass moved
// anything. Callers sleep between polls; PollAt says until when.
func (i *Interface) Poll(now time.Time, dev device.Device, set *SocketSet) bool {
	if caps := dev.Capabilities(); caps != i.caps {
		panic(fmt.Sprintf("iface: device capabilities changed: had %+v, got %+v", i.caps, caps))
	}
	cx := pollContext{now: now, caps: i.caps, id: i.canID(), node: i.node}

	if id, closed := i.enum.poll(now); closed {
		if id == 0 {
			logging.Warnf("iface.Poll enumeration found no free id, keeping %v", i.canID())
		} else {
			i.addr = wire.CanAddress(id)
			cx.id = id
			logging.Debugf("iface.Poll enumeration resolved id=%v", id)
		}
	}

	progressed := false
	for {
		ingressed := i.socketIngress(&cx, dev, set)
		egressed := i.socketEgress(&cx, dev, set)
		if !ingressed && !egressed {
			break
		}
		progressed = true
	}
	return progressed
}

// socketIngress drains every pending receive token. A consumed token is
// progress even when its frame is discarded; the device queue shrank.
func (i *Interface) socketIngress(cx *pollContext, dev device.Device, set *SocketSet) bool {
	progressed := false
	for {
		rx, reply, ok := dev.Receive()
		if !ok {
			break
		}
		rx.Consume(func(buf []byte) {
			i.processFrame(cx, set, buf, reply)
		})
		progressed = true
	}
	return progressed
}

// processFrame validates one received frame and routes its packet. Frames
// that fail validation are discarded with a trace; the bus is shared and a
// malformed neighbour must not wedge this node.
func (i *Interface) processFrame(cx *pollContext, set *SocketSet, buf []byte, reply device.TxToken) {
	f, err := wire.NewCheckedFrame(buf)
	if err != nil {
		logging.Tracef("iface.ingress discarding malformed frame len=%d err=%v", len(buf), err)
		return
	}
	if f.RTR() {
		// Someone else is enumerating. Claim our id on the paired slot so
		// their round sees it; a zero-payload frame is the whole claim.
		i.replyToEnumQuery(cx, reply)
		return
	}
	payload := f.Payload()
	if len(payload) == 0 {
		i.enum.observe(f.ID())
		return
	}
	pkt, err := wire.NewCheckedPacket(payload)
	if err != nil {
		logging.Tracef("iface.ingress discarding malformed packet from %v err=%v", f.ID(), err)
		return
	}
	switch proto := pkt.NextProtocol(); proto {
	case wire.ProtocolModule, wire.ProtocolLongMsg:
		i.deliver(set, proto, pkt)
	default:
		logging.Tracef("iface.ingress discarding op=0x%02X from %v: no protocol", uint8(pkt.Opcode()), f.ID())
	}
}

// deliver hands the packet to every socket of the matching kind. The bus
// is a broadcast medium; each listener gets its own copy.
func (i *Interface) deliver(set *SocketSet, proto wire.Protocol, pkt wire.Packet) {
	want := socket.KindModule
	if proto == wire.ProtocolLongMsg {
		want = socket.KindLongMsg
	}
	delivered := false
	set.Each(func(_ Handle, sk socket.Socket) bool {
		if sk.Kind() == want {
			sk.Process(pkt)
			delivered = true
		}
		return true
	})
	if !delivered {
		logging.Tracef("iface.ingress no %v socket for op=%v", want, pkt.Opcode())
	}
}

// replyToEnumQuery answers a query frame with our zero-payload claim on
// the paired transmit slot. Losing the slot loses the claim; the enumerator
// on the other end treats silence as a free id, which is the protocol's own
// failure mode, so a trace is all we owe it.
func (i *Interface) replyToEnumQuery(cx *pollContext, reply device.TxToken) {
	if reply == nil {
		return
	}
	r := wire.FrameRepr{ID: cx.id, Priority: wire.DefaultPriority}
	err := reply.Consume(r.BufferLen(), func(buf []byte) error {
		r.Emit(wire.NewFrame(buf))
		return nil
	})
	if err != nil {
		logging.Tracef("iface.ingress enum claim not sent id=%v err=%v", cx.id, err)
	}
}

// socketEgress gives each socket one transmit opportunity in slot order.
// Device exhaustion stops the whole pass; undelivered packets stay queued
// and the next poll resumes from the front of the set.
func (i *Interface) socketEgress(cx *pollContext, dev device.Device, set *SocketSet) bool {
	progressed := false
	set.Each(func(h Handle, sk socket.Socket) bool {
		emitted := false
		err := sk.Dispatch(func(pkt []byte) error {
			frameLen := wire.FrameHeaderLen + len(pkt)
			if frameLen > cx.caps.MaxTransmissionUnit {
				// Consume it: a packet wider than the medium can never
				// send and would wedge the queue behind it.
				logging.Tracef("iface.egress dropping oversize packet len=%d mtu=%d", len(pkt), cx.caps.MaxTransmissionUnit)
				return nil
			}
			tx, ok := dev.Transmit()
			if !ok {
				return errTransmitExhausted
			}
			err := tx.Consume(frameLen, func(buf []byte) error {
				r := wire.FrameRepr{ID: cx.id, Priority: wire.DefaultPriority}
				r.DataLen = copy(r.Data[:], pkt)
				r.Emit(wire.NewFrame(buf))
				return nil
			})
			if err == nil {
				emitted = true
			}
			return err
		})
		if emitted {
			progressed = true
		}
		if err != nil {
			logging.Tracef("iface.egress pass stopped at %v: %v", h, err)
			return false
		}
		return true
	})
	return progressed
}

// PollAt reports the earliest instant the next Poll is needed, or false
// when nothing is scheduled and only bus traffic can create work.
func (i *Interface) PollAt(now time.Time, set *SocketSet) (time.Time, bool) {
	var at time.Time
	have := false
	consider := func(t time.Time) {
		if !have || t.Before(at) {
			at = t
			have = true
		}
	}
	if d, ok := i.enum.deadline(); ok {
		consider(d)
	}
	set.Each(func(_ Handle, sk socket.Socket) bool {
		pa := sk.PollAt()
		switch pa.When() {
		case socket.PollNow:
			consider(now)
			return false
		case socket.PollTime:
			if d, ok := pa.Deadline(); ok {
				consider(d)
			}
		}
		return true
	})
	return at, have
}

// PollDelay turns PollAt into a sleep budget from now. A zero duration
// with true means poll immediately.
func (i *Interface) PollDelay(now time.Time, set *SocketSet) (time.Duration, bool) {
	at, ok := i.PollAt(now, set)
	if !ok {
		return 0, false
	}
	if d := at.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}

package module

import (
	"context"
	"time"

	"github.com/danmuck/railcan/internal/device"
	"github.com/danmuck/railcan/internal/iface"
	"github.com/danmuck/railcan/internal/logging"
	"github.com/danmuck/railcan/internal/nodecfg"
	"github.com/danmuck/railcan/internal/socket"
	"github.com/danmuck/railcan/internal/storage"
	"github.com/danmuck/railcan/internal/vlcb"
	"github.com/danmuck/railcan/internal/wire"
)

// socketQueueDepth is how many packets each socket queue holds. Twelve
// whole packets of headroom per direction covers a worst-case bus burst
// between two ticks of a slow embedder loop.
const socketQueueDepth = 12

// maxQueuedPacket sizes the byte side of each queue.
const maxQueuedPacket = wire.PacketHeaderLen + wire.MaxPacketPayload

// Options configure a runtime. Device and Config are required; a nil UI
// runs headless.
type Options struct {
	Device   device.Device
	Config   nodecfg.NodeConfig
	Identity Identity
	UI       UI
}

// Runtime is one composed node. It owns the socket set and the module and
// long-message sockets; the embedder owns the device and the config.
type Runtime struct {
	dev    device.Device
	ifc    *iface.Interface
	set    *iface.SocketSet
	cfg    nodecfg.NodeConfig
	ui     UI
	params Params
	name   string

	modSock *socket.Module
	lmSock  *socket.LongMsg

	switchWasDown bool
}

func newQueue() *storage.PacketBuffer {
	return storage.NewPacketBuffer(
		make([]storage.PacketMetadata, socketQueueDepth),
		make([]byte, socketQueueDepth*maxQueuedPacket),
	)
}

// New composes a runtime and seeds the interface's addressing from the
// config, the one hand-off the configuration collaborator owes the core.
func New(opts Options) *Runtime {
	ui := opts.UI
	if ui == nil {
		ui = NopUI{}
	}
	ifc := iface.New(iface.Config{
		HardwareAddr: wire.CanAddress(opts.Config.CanID()),
		NodeNumber:   opts.Config.NodeNumber(),
	}, opts.Device)

	r := &Runtime{
		dev:     opts.Device,
		ifc:     ifc,
		set:     iface.NewGrowableSocketSet(),
		cfg:     opts.Config,
		ui:      ui,
		params:  NewParams(opts.Identity),
		name:    opts.Identity.Name,
		modSock: socket.NewModule(newQueue(), newQueue()),
		lmSock:  socket.NewLongMsg(newQueue(), newQueue()),
	}
	r.set.Add(r.modSock)
	r.set.Add(r.lmSock)
	logging.Infof("module.New name=%q id=%v nn=%v mode=%v",
		r.name, opts.Config.CanID(), opts.Config.NodeNumber(), opts.Config.Mode())
	return r
}

// Interface exposes the polling engine, for embedders that drive it
// directly.
func (r *Runtime) Interface() *iface.Interface {
	return r.ifc
}

// Sockets exposes the runtime's socket set.
func (r *Runtime) Sockets() *iface.SocketSet {
	return r.set
}

// ModuleSocket is the general-purpose packet endpoint.
func (r *Runtime) ModuleSocket() *socket.Module {
	return r.modSock
}

// LongMsgSocket is the long-message chunk endpoint.
func (r *Runtime) LongMsgSocket() *socket.LongMsg {
	return r.lmSock
}

// Params returns the node parameter table.
func (r *Runtime) Params() *Params {
	return &r.params
}

// Name returns the module type name.
func (r *Runtime) Name() string {
	return r.name
}

// Send queues one outgoing packet on the module socket.
func (r *Runtime) Send(pkt []byte) error {
	return r.modSock.SendSlice(pkt)
}

// Poll runs one cooperative tick: UI first so a fresh button press lands
// in the same tick, then the network to its fixed point. Bus traffic
// lights the activity indicator; a main-switch press requests an
// arbitration-id enumeration round.
func (r *Runtime) Poll(now time.Time) bool {
	r.ui.Poll(now)
	if down := r.ui.IsMainSwitchPressed(); down && !r.switchWasDown {
		logging.Debugf("module.Poll main switch pressed, requesting enumeration")
		r.ifc.StartEnumeration(now)
		r.switchWasDown = true
	} else if !down {
		r.switchWasDown = false
	}

	progressed := r.ifc.Poll(now, r.dev, r.set)
	if progressed {
		r.ui.IndicateActivity()
	}
	r.syncAddressing()
	return progressed
}

// syncAddressing writes resolved addressing back into the config so the
// next startup keeps it. Runs between polls by construction.
func (r *Runtime) syncAddressing() {
	if id, ok := r.ifc.HardwareAddr().Can(); ok && id != r.cfg.CanID() {
		logging.Infof("module.syncAddressing can id %v -> %v", r.cfg.CanID(), id)
		r.cfg.SetCanID(id)
	}
	if nn := r.ifc.NodeNumber(); nn != r.cfg.NodeNumber() {
		r.cfg.SetNodeNumber(nn)
	}
}

// Run polls until ctx is done. Between polls it sleeps until the
// interface's next deadline, capped at maxTick so bus arrivals are picked
// up even when nothing is scheduled.
func (r *Runtime) Run(ctx context.Context, maxTick time.Duration) error {
	if maxTick <= 0 {
		maxTick = 10 * time.Millisecond
	}
	timer := time.NewTimer(maxTick)
	defer timer.Stop()
	for {
		r.Poll(time.Now())

		wait := maxTick
		if d, ok := r.ifc.PollDelay(time.Now(), r.set); ok && d < wait {
			wait = d
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// NodeInfo reports the identity octets a QueryNodeInfo reply carries for
// this node: node number, manufacturer, module id and flags.
func (r *Runtime) NodeInfo() (vlcb.NodeNumber, uint8, uint8, vlcb.NodeFlags) {
	manu, _ := r.params.Get(ParamManufacturer)
	mod, _ := r.params.Get(ParamModuleID)
	flags, _ := r.params.Get(ParamFlags)
	return r.cfg.NodeNumber(), manu, mod, vlcb.NodeFlags(flags)
}

package construct

import (
	"fmt"
	"strings"

	"github.com/danmuck/railcan/internal/vlcb"
)

// RestartAllNodes broadcasts a full system reset to every node.
func RestartAllNodes() Payload {
	return packet(vlcb.OpARST)
}

// RestartNode makes one node carry out a software reset. No settings are
// affected.
func RestartNode(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNNRST, b[0], b[1])
}

// SetNodeNumber assigns a node number to the node currently in setup mode,
// answering its AllocateNodeNumber request.
func SetNodeNumber(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpSNN, b[0], b[1])
}

// ResetToFactory makes a node revert to manufacturer defaults. The node
// keeps its node number; taught events and variables reset.
func ResetToFactory(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNNRSM, b[0], b[1])
}

// AllocateNodeNumber is sent by a node in setup mode asking for a node
// number. A node that already holds one sends it; an unassigned node sends
// the zero value.
func AllocateNodeNumber(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpRQNN, b[0], b[1])
}

// StartLearnMode puts a node into event learn mode.
func StartLearnMode(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNNLRN, b[0], b[1])
}

// EndLearnMode takes a node out of learn mode and back to normal
// operation.
func EndLearnMode(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNNULN, b[0], b[1])
}

// ClearAllEvents wipes a node's taught event table. Only honored while the
// node is in learn mode.
func ClearAllEvents(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNNCLR, b[0], b[1])
}

// RebootIntoBootloader prepares a node for a firmware load.
func RebootIntoBootloader(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpBOOTM, b[0], b[1])
}

// ForceEnumeration makes a node run an arbitration-id self-enumeration
// round. The node confirms the outcome with a NodeNumberAck.
func ForceEnumeration(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpENUM, b[0], b[1])
}

// maxAssignableCanID is the top of the range CANID may force; ids above it
// are reserved for self-enumeration and fixed infrastructure.
const maxAssignableCanID = 0x63

// SetCanID forces a specific arbitration id into a node. Duplicate ids are
// not policed on the wire, so the caller carries that responsibility.
func SetCanID(nn vlcb.NodeNumber, id vlcb.CanID) (Payload, error) {
	if id < 1 || uint8(id) > maxAssignableCanID {
		return Payload{}, fmt.Errorf("%w: can id %d outside 1..%d", ErrBadValue, uint8(id), maxAssignableCanID)
	}
	b := nn.Bytes()
	return packet(vlcb.OpCANID, b[0], b[1], uint8(id)), nil
}

// SetNodeVariable writes one node variable. Indices are 1-based.
func SetNodeVariable(nn vlcb.NodeNumber, index, value uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNVSET, b[0], b[1], index, value)
}

// SetOperatingMode switches a node between its operating modes.
func SetOperatingMode(nn vlcb.NodeNumber, mode vlcb.ModuleMode) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpMODE, b[0], b[1], uint8(mode))
}

// ReleaseNodeNumber is sent by a node taken out of service.
func ReleaseNodeNumber(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNNREL, b[0], b[1])
}

// NodeNumberAck confirms a node's presence and its node number, closing a
// SetNodeNumber exchange or a forced enumeration.
func NodeNumberAck(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNNACK, b[0], b[1])
}

// QueryNodeInfo asks every numbered node to reply with a NodeInfoReply.
func QueryNodeInfo() Payload {
	return packet(vlcb.OpQNN)
}

// QueryNodeParameters reads the parameter set of the node in setup mode.
func QueryNodeParameters() Payload {
	return packet(vlcb.OpRQNP)
}

// QueryModuleName asks the node in setup mode for its type name.
func QueryModuleName() Payload {
	return packet(vlcb.OpRQMN)
}

// QueryNodeData asks a node for its data event. Answered by a
// NodeDataResponse.
func QueryNodeData(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpRQDAT, b[0], b[1])
}

// QueryDeviceData requests a data set from an addressed device. Answered
// by a DeviceDataResponse.
func QueryDeviceData(device uint16) Payload {
	return packet(vlcb.OpRQDDS, byte(device>>8), byte(device))
}

// QueryNodeVariable reads one node variable. Indices are 1-based; the
// reply comes back as a NodeVariableReply.
func QueryNodeVariable(nn vlcb.NodeNumber, index uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNVRD, b[0], b[1], index)
}

// QueryNodeParameter reads one node parameter by index. Index zero returns
// the parameter count.
func QueryNodeParameter(nn vlcb.NodeNumber, index uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpRQNPN, b[0], b[1], index)
}

// QueryStoredEventCount asks how many events a node has taught. Answered
// by a StoredEventCountReply.
func QueryStoredEventCount(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpRQEVN, b[0], b[1])
}

// QueryEventSpaceLeft asks how many free event slots a node has. Answered
// by an EventSpaceLeftReply.
func QueryEventSpaceLeft(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNNEVN, b[0], b[1])
}

// ReadStoredEvents asks a node to send a StoredEventReply for every taught
// event.
func ReadStoredEvents(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNERD, b[0], b[1])
}

// QueryStoredEventByIndex reads one taught event by event table index.
func QueryStoredEventByIndex(nn vlcb.NodeNumber, index uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNENRD, b[0], b[1], index)
}

// QueryServiceDiscovery asks a node which services it runs. Service index
// zero enumerates them all.
func QueryServiceDiscovery(nn vlcb.NodeNumber, service uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpRQSD, b[0], b[1], service)
}

// WriteAck reports the completion of a write to node memory. Every node
// issues one after a taught event or variable lands, so slow storage never
// races the teaching tool.
func WriteAck(nn vlcb.NodeNumber) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpWRACK, b[0], b[1])
}

// ConfigError reports a failed configuration command.
func ConfigError(nn vlcb.NodeNumber, code vlcb.CmdErr) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpCMDERR, b[0], b[1], uint8(code))
}

// EventSpaceLeftReply answers a QueryEventSpaceLeft.
func EventSpaceLeftReply(nn vlcb.NodeNumber, slotsFree uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpEVNLF, b[0], b[1], slotsFree)
}

// StoredEventCountReply answers a QueryStoredEventCount.
func StoredEventCountReply(nn vlcb.NodeNumber, count uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNUMEV, b[0], b[1], count)
}

// NodeVariableReply answers a QueryNodeVariable.
func NodeVariableReply(nn vlcb.NodeNumber, index, value uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNVANS, b[0], b[1], index, value)
}

// NodeParameterReply answers a QueryNodeParameter.
func NodeParameterReply(nn vlcb.NodeNumber, index, value uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpPARAN, b[0], b[1], index, value)
}

// NodeInfoReply answers a QueryNodeInfo with the node's identity octets
// from its parameter table.
func NodeInfoReply(nn vlcb.NodeNumber, manufacturer, moduleID uint8, flags vlcb.NodeFlags) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpPNN, b[0], b[1], manufacturer, moduleID, uint8(flags))
}

// moduleNameLen is the fixed name field width; shorter names space-fill.
const moduleNameLen = 7

// ModuleNameReply answers a QueryModuleName. The name drops its medium
// prefix, carries at most seven ASCII octets, and space-fills the rest.
func ModuleNameReply(name string) (Payload, error) {
	if len(name) > moduleNameLen {
		return Payload{}, fmt.Errorf("%w: module name %q over %d octets", ErrBadLength, name, moduleNameLen)
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7E {
			return Payload{}, fmt.Errorf("%w: module name octet 0x%02X not printable ascii", ErrBadValue, name[i])
		}
	}
	padded := name + strings.Repeat(" ", moduleNameLen-len(name))
	return packet(vlcb.OpNAME, padded[0], padded[1], padded[2], padded[3], padded[4], padded[5], padded[6]), nil
}

// NodeParametersReply answers a QueryNodeParameters with the first seven
// parameter octets of the node in setup mode.
func NodeParametersReply(params [7]byte) Payload {
	return packet(vlcb.OpPARAMS, params[0], params[1], params[2], params[3], params[4], params[5], params[6])
}

// GenericResponse closes a configuration request with a result octet,
// tagged with the opcode and service it answers.
func GenericResponse(nn vlcb.NodeNumber, requested vlcb.Opcode, service, result uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpGRSP, b[0], b[1], uint8(requested), service, result)
}

// Heartbeat is the periodic liveness broadcast of a node with the
// heartbeat service enabled. The fifth data octet is reserved and zero.
func Heartbeat(nn vlcb.NodeNumber, sequence, status uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpHEARTB, b[0], b[1], sequence, status, 0)
}

// EventAck echoes a consumed event back at its producer when the
// event-acknowledge service is enabled.
func EventAck(nn vlcb.NodeNumber, ev vlcb.EventID) Payload {
	n := nn.Bytes()
	b := ev.Bytes()
	return packet(vlcb.OpENACK, n[0], n[1], b[0], b[1], b[2], b[3], 0)
}

// ServiceDiscoveryReply describes one service in answer to a
// QueryServiceDiscovery.
func ServiceDiscoveryReply(nn vlcb.NodeNumber, serviceIndex, serviceType, version uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpESD, b[0], b[1], serviceIndex, serviceType, version, 0, 0)
}

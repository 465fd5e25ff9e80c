package construct

import (
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

// Each accessory family indexed by attached data length. A zero slot means
// the numbering never assigned that variant a lead octet.
var (
	accOnLong   = [4]vlcb.Opcode{vlcb.OpACON, vlcb.OpACON1, vlcb.OpACON2, vlcb.OpACON3}
	accOffLong  = [4]vlcb.Opcode{vlcb.OpACOF, vlcb.OpACOF1, vlcb.OpACOF2, vlcb.OpACOF3}
	accOnShort  = [4]vlcb.Opcode{vlcb.OpASON, vlcb.OpASON1, vlcb.OpASON2, vlcb.OpASON3}
	accOffShort = [4]vlcb.Opcode{vlcb.OpASOF, vlcb.OpASOF1, vlcb.OpASOF2, vlcb.OpASOF3}
	rspOnLong   = [4]vlcb.Opcode{vlcb.OpARON, vlcb.OpARON1, vlcb.OpARON2, vlcb.OpARON3}
	rspOffLong  = [4]vlcb.Opcode{vlcb.OpAROF, vlcb.OpAROF1, vlcb.OpAROF2, vlcb.OpAROF3}
	rspOnShort  = [4]vlcb.Opcode{vlcb.OpARSON, 0, vlcb.OpARSON2, vlcb.OpARSON3}
	rspOffShort = [4]vlcb.Opcode{vlcb.OpARSOF, 0, vlcb.OpARSOF2, vlcb.OpARSOF3}
)

// Accessory builds a produced accessory event. The event id picks the long
// or short form; up to three octets of attached data ride along.
func Accessory(t vlcb.EventType, ev vlcb.EventID, extra []byte) (Payload, error) {
	return accessory(t, ev, extra, false)
}

// AccessoryResponse builds the status-response form of an accessory event,
// answering an AccessoryRequest without producing a new event. The short
// status family skips the one-octet variant; that combination cannot be
// encoded.
func AccessoryResponse(t vlcb.EventType, ev vlcb.EventID, extra []byte) (Payload, error) {
	return accessory(t, ev, extra, true)
}

func accessory(t vlcb.EventType, ev vlcb.EventID, extra []byte, response bool) (Payload, error) {
	if len(extra) > 3 {
		return Payload{}, fmt.Errorf("%w: %d attached octets, max 3", ErrBadLength, len(extra))
	}
	var family *[4]vlcb.Opcode
	switch {
	case !response && t == vlcb.EventOn && !ev.Short:
		family = &accOnLong
	case !response && t == vlcb.EventOn && ev.Short:
		family = &accOnShort
	case !response && t == vlcb.EventOff && !ev.Short:
		family = &accOffLong
	case !response && t == vlcb.EventOff && ev.Short:
		family = &accOffShort
	case response && t == vlcb.EventOn && !ev.Short:
		family = &rspOnLong
	case response && t == vlcb.EventOn && ev.Short:
		family = &rspOnShort
	case response && t == vlcb.EventOff && !ev.Short:
		family = &rspOffLong
	default:
		family = &rspOffShort
	}
	op := family[len(extra)]
	if op == 0 {
		return Payload{}, fmt.Errorf("%w: no lead octet for a short status event with one attached octet", ErrBadLength)
	}
	b := ev.Bytes()
	data := [7]byte{b[0], b[1], b[2], b[3]}
	n := 4 + copy(data[4:], extra)
	return packet(op, data[:n]...), nil
}

// AccessoryRequest asks a producer for its current state without producing
// an on or off event. The reply comes back as an AccessoryResponse.
func AccessoryRequest(ev vlcb.EventID) Payload {
	op := vlcb.OpAREQ
	if ev.Short {
		op = vlcb.OpASRQ
	}
	b := ev.Bytes()
	return packet(op, b[0], b[1], b[2], b[3])
}

// UnlearnEvent removes a taught event from a node in learn mode.
func UnlearnEvent(ev vlcb.EventID) (Payload, error) {
	if ev.Short {
		return Payload{}, ErrShortEvent
	}
	b := ev.Bytes()
	return packet(vlcb.OpEVULN, b[0], b[1], b[2], b[3]), nil
}

// TeachEvent teaches a node in learn mode one event and one of its event
// variables. Repeated per variable. Short events carry a zero node part.
func TeachEvent(ev vlcb.EventID, evIndex, value uint8) Payload {
	b := ev.Bytes()
	return packet(vlcb.OpEVLRN, b[0], b[1], b[2], b[3], evIndex, value)
}

// TeachEventByIndex teaches an event at a known event table index.
func TeachEventByIndex(ev vlcb.EventID, enIndex, evIndex, value uint8) Payload {
	b := ev.Bytes()
	return packet(vlcb.OpEVLRNI, b[0], b[1], b[2], b[3], enIndex, evIndex, value)
}

// QueryEventVariable reads an event variable by event table index, no
// learn mode needed. The reply comes back as an EventVariableReply.
func QueryEventVariable(nn vlcb.NodeNumber, enIndex, evIndex uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpREVAL, b[0], b[1], enIndex, evIndex)
}

// QueryEventVariableLearn reads a stored event variable from a node in
// learn mode. The reply comes back as an EventVariableLearnReply.
func QueryEventVariableLearn(ev vlcb.EventID, evIndex uint8) Payload {
	b := ev.Bytes()
	return packet(vlcb.OpREQEV, b[0], b[1], b[2], b[3], evIndex)
}

// EventVariableReply answers a QueryEventVariable.
func EventVariableReply(nn vlcb.NodeNumber, enIndex, evIndex, value uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpNEVAL, b[0], b[1], enIndex, evIndex, value)
}

// EventVariableLearnReply answers a QueryEventVariableLearn, one reply per
// requested variable.
func EventVariableLearnReply(ev vlcb.EventID, evIndex, value uint8) Payload {
	b := ev.Bytes()
	return packet(vlcb.OpEVANS, b[0], b[1], b[2], b[3], evIndex, value)
}

// StoredEventReply reports one stored event during a readback, tagged with
// its index in the sending node's event table.
func StoredEventReply(nn vlcb.NodeNumber, ev vlcb.EventID, index uint8) Payload {
	n := nn.Bytes()
	b := ev.Bytes()
	return packet(vlcb.OpENRSP, n[0], n[1], b[0], b[1], b[2], b[3], index)
}

// NodeDataEvent carries five octets of node data with no event number, so
// a node gets exactly one data event.
func NodeDataEvent(nn vlcb.NodeNumber, data [5]byte) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpACDAT, b[0], b[1], data[0], data[1], data[2], data[3], data[4])
}

// NodeDataResponse answers a node data request without producing a new
// data event.
func NodeDataResponse(nn vlcb.NodeNumber, data [5]byte) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpARDAT, b[0], b[1], data[0], data[1], data[2], data[3], data[4])
}

// DeviceDataEvent carries five octets of data from an addressed device,
// so one node can relate data to several attached readers.
func DeviceDataEvent(device uint16, data [5]byte) Payload {
	return packet(vlcb.OpDDES, byte(device>>8), byte(device), data[0], data[1], data[2], data[3], data[4])
}

// DeviceDataResponse answers a device data request.
func DeviceDataResponse(device uint16, data [5]byte) Payload {
	return packet(vlcb.OpDDRS, byte(device>>8), byte(device), data[0], data[1], data[2], data[3], data[4])
}

// DeviceDataWrite sends five octets of data to an addressed device.
func DeviceDataWrite(device uint16, data [5]byte) Payload {
	return packet(vlcb.OpDDWS, byte(device>>8), byte(device), data[0], data[1], data[2], data[3], data[4])
}

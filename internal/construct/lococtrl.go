package construct

import (
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

// TrackOff announces that track power is off and no further command
// packets should be sent, inquiries excepted.
func TrackOff() Payload {
	return packet(vlcb.OpTOF)
}

// TrackOn announces that track power is on.
func TrackOn() Payload {
	return packet(vlcb.OpTON)
}

// EmergencyStopAll announces that every engine has been emergency stopped.
func EmergencyStopAll() Payload {
	return packet(vlcb.OpESTOP)
}

// RequestTrackOff asks the command station to drop track power.
func RequestTrackOff() Payload {
	return packet(vlcb.OpRTOF)
}

// RequestTrackOn asks the command station to restore track power.
func RequestTrackOn() Payload {
	return packet(vlcb.OpRTON)
}

// RequestEmergencyStop asks for an emergency stop of all trains. Accessory
// control is unaffected.
func RequestEmergencyStop() Payload {
	return packet(vlcb.OpRESTP)
}

// ReleaseEngine drops the engine session from the command station's active
// list.
func ReleaseEngine(session uint8) Payload {
	return packet(vlcb.OpKLOC, session)
}

// SessionKeepAlive must arrive at intervals shorter than the command
// station's session timeout while a cab holds a session.
func SessionKeepAlive(session uint8) Payload {
	return packet(vlcb.OpDKEEP, session)
}

// RequestEngineSession asks the command station for a session on the
// decoder address. The station answers with an EngineReport, or an error
// report when the address is taken or the stack is full.
func RequestEngineSession(addr vlcb.LocoAddress) Payload {
	b := addr.WireBytes()
	return packet(vlcb.OpRLOC, b[0], b[1])
}

// RequestEngineSessionFlags is the steal/share form of a session request.
// A zero mode behaves exactly like RequestEngineSession.
func RequestEngineSessionFlags(addr vlcb.LocoAddress, mode vlcb.SessionQueryMode) Payload {
	b := addr.WireBytes()
	return packet(vlcb.OpGLOC, b[0], b[1], uint8(mode))
}

// AllocateLoco ties a session to an activity such as a shuttle.
func AllocateLoco(session, activity uint8) Payload {
	return packet(vlcb.OpALOC, session, activity)
}

// SetThrottleMode configures the session's speed-step mode plus the
// service and sound-control flags.
func SetThrottleMode(session uint8, mode vlcb.ThrottleMode, serviceMode, soundControl bool) Payload {
	octet := uint8(mode)
	if serviceMode {
		octet |= 0x04
	}
	if soundControl {
		octet |= 0x08
	}
	return packet(vlcb.OpSTMOD, session, octet)
}

// AddToConsist adds the session's decoder to a consist. The top bit of
// consist marks reversed running direction.
func AddToConsist(session, consist uint8) Payload {
	return packet(vlcb.OpPCON, session, consist)
}

// RemoveFromConsist takes the session's decoder out of a consist.
func RemoveFromConsist(session, consist uint8) Payload {
	return packet(vlcb.OpKCON, session, consist)
}

// SetSpeedDir requests a speed and direction change. Speed is a 7-bit
// value; the top bit of the octet carries direction.
func SetSpeedDir(session, speed uint8, reversed bool) Payload {
	octet := speed & 0x7F
	if reversed {
		octet |= 0x80
	}
	return packet(vlcb.OpDSPD, session, octet)
}

// SetEngineFlags notifies the command station of a change in session
// flags: speed-step mode, lights, relative direction and engine state.
func SetEngineFlags(session uint8, mode vlcb.ThrottleMode, lightsOn, relativeDirection bool, state vlcb.EngineState) Payload {
	octet := uint8(mode)
	if lightsOn {
		octet |= 0x04
	}
	if relativeDirection {
		octet |= 0x08
	}
	octet |= uint8(state) << 4
	return packet(vlcb.OpDFLG, session, octet)
}

// EngineFunctionOn turns one decoder function on by its 7-bit number.
func EngineFunctionOn(session, function uint8) Payload {
	return packet(vlcb.OpDFNON, session, function&0x7F)
}

// EngineFunctionOff turns one decoder function off by its 7-bit number.
func EngineFunctionOff(session, function uint8) Payload {
	return packet(vlcb.OpDFNOF, session, function&0x7F)
}

// SetEngineFunctions writes a whole block of function bits in one packet.
func SetEngineFunctions(session uint8, block vlcb.FunctionRange, bits uint8) Payload {
	return packet(vlcb.OpDFUN, session, uint8(block), bits)
}

// SendDCCPacket asks the command station to put a raw DCC packet on the
// track, repeated the given number of times. DCC packets run three to six
// octets.
func SendDCCPacket(times uint8, dcc []byte) (Payload, error) {
	if times < 1 {
		return Payload{}, fmt.Errorf("%w: repeat count 0", ErrBadValue)
	}
	var op vlcb.Opcode
	switch len(dcc) {
	case 3:
		op = vlcb.OpRDCC3
	case 4:
		op = vlcb.OpRDCC4
	case 5:
		op = vlcb.OpRDCC5
	case 6:
		op = vlcb.OpRDCC6
	default:
		return Payload{}, fmt.Errorf("%w: dcc packet of %d octets, want 3 to 6", ErrBadLength, len(dcc))
	}
	data := [7]byte{times}
	n := 1 + copy(data[1:], dcc)
	return packet(op, data[:n]...), nil
}

// WriteCVByte writes a decoder CV byte on the main, addressed by session.
func WriteCVByte(session uint8, cv uint16, value uint8) Payload {
	return packet(vlcb.OpWCVO, session, byte(cv>>8), byte(cv), value)
}

// WriteCVBit writes one decoder CV bit on the main. The value octet is the
// DCC bit-manipulation form: bit value in bit 3, bit position in the low
// three bits.
func WriteCVBit(session uint8, cv uint16, value uint8) Payload {
	return packet(vlcb.OpWCVB, session, byte(cv>>8), byte(cv), value)
}

// WriteCVService writes a decoder CV on the programming track in the given
// service mode.
func WriteCVService(session uint8, cv uint16, mode, value uint8) Payload {
	return packet(vlcb.OpWCVS, session, byte(cv>>8), byte(cv), mode, value)
}

// WriteCVByAddress writes a CV on the main without a session, for
// programmers that hold no throttle handle.
func WriteCVByAddress(addr vlcb.LocoAddress, cv uint16, mode, value uint8) Payload {
	b := addr.WireBytes()
	return packet(vlcb.OpWCVOA, b[0], b[1], byte(cv>>8), byte(cv), mode, value)
}

// ReadCVService reads a decoder CV on the programming track. The value
// comes back as a ReportCVService, or a ServiceModeStatus when the read
// fails.
func ReadCVService(session uint8, cv uint16, mode uint8) Payload {
	return packet(vlcb.OpQCVS, session, byte(cv>>8), byte(cv), mode)
}

// ReportCVService reports a CV value read on the programming track.
func ReportCVService(session uint8, cv uint16, value uint8) Payload {
	return packet(vlcb.OpPCVS, session, byte(cv>>8), byte(cv), value)
}

// CommandStationStatus asks the command station for its status report.
func CommandStationStatus() Payload {
	return packet(vlcb.OpRSTAT)
}

// QueryEngine asks for the engine report behind a session handle.
func QueryEngine(session uint8) Payload {
	return packet(vlcb.OpQLOC, session)
}

// QueryConsist walks a consist one engine index at a time.
func QueryConsist(consist, index uint8) Payload {
	return packet(vlcb.OpQCON, consist, index)
}

// ServiceModeStatus closes a programming operation that returns no data.
func ServiceModeStatus(session, status uint8) Payload {
	return packet(vlcb.OpSSTAT, session, status)
}

// EngineReport is the command station's session report: the acknowledgement
// of an acquired session or the answer to QueryEngine. fnA, fnB and fnC
// carry functions F0 to F4, F5 to F8 and F9 to F12.
func EngineReport(session uint8, addr vlcb.LocoAddress, speed uint8, reversed bool, fnA, fnB, fnC uint8) Payload {
	b := addr.WireBytes()
	octet := speed & 0x7F
	if reversed {
		octet |= 0x80
	}
	return packet(vlcb.OpPLOC, session, b[0], b[1], octet, fnA, fnB, fnC)
}

// CommandStationReport answers CommandStationStatus. Build stays zero on
// released firmware.
func CommandStationReport(nn vlcb.NodeNumber, csNum, flags, major, minor, build uint8) Payload {
	b := nn.Bytes()
	return packet(vlcb.OpSTAT, b[0], b[1], csNum, flags, major, minor, build)
}

// StackFullReport tells a cab the command station's session stack is full.
func StackFullReport(addr vlcb.LocoAddress) Payload {
	b := addr.WireBytes()
	return packet(vlcb.OpERR, b[0], b[1], uint8(vlcb.ErrLocoStackFull))
}

// AddressTakenReport tells a cab the decoder address already has a session.
func AddressTakenReport(addr vlcb.LocoAddress) Payload {
	b := addr.WireBytes()
	return packet(vlcb.OpERR, b[0], b[1], uint8(vlcb.ErrLocoAddrTaken))
}

// SessionMissingReport answers an operation on a session handle the
// command station does not hold.
func SessionMissingReport(session uint8) Payload {
	return packet(vlcb.OpERR, session, 0, uint8(vlcb.ErrSessionMissing))
}

// ConsistEmptyReport answers a consist query with no engine at the index.
func ConsistEmptyReport(session uint8) Payload {
	return packet(vlcb.OpERR, session, 0, uint8(vlcb.ErrConsistEmpty))
}

// LocoNotFoundReport answers a query on an unassigned session handle.
func LocoNotFoundReport(session uint8) Payload {
	return packet(vlcb.OpERR, session, 0, uint8(vlcb.ErrLocoNotFound))
}

// OverflowReport goes out when the command station's receive buffers
// overflow.
func OverflowReport() Payload {
	return packet(vlcb.OpERR, 0, 0, uint8(vlcb.ErrRxBufOverflow))
}

// InvalidRequestReport rejects an inconsistent request, such as a session
// request with both steal and share set.
func InvalidRequestReport(addr vlcb.LocoAddress) Payload {
	b := addr.WireBytes()
	return packet(vlcb.OpERR, b[0], b[1], uint8(vlcb.ErrInvalidRequest))
}

// SessionCancelledReport tells a cab its session was stolen by another.
func SessionCancelledReport(session uint8) Payload {
	return packet(vlcb.OpERR, session, 0, uint8(vlcb.ErrSessionCancelled))
}

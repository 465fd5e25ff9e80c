package vlcb

import "fmt"

// Opcode is the leading octet of every protocol packet. The top three bits
// encode how many data octets follow, so the length of a well-formed packet
// is derivable from the opcode alone.
type Opcode uint8

const (
	// no data octets
	OpACK   Opcode = 0x00 // general affirmative
	OpNAK   Opcode = 0x01 // general negative
	OpHLT   Opcode = 0x02 // bus halt
	OpBON   Opcode = 0x03 // bus resume
	OpTOF   Opcode = 0x04 // track off
	OpTON   Opcode = 0x05 // track on
	OpESTOP Opcode = 0x06 // emergency stop all
	OpARST  Opcode = 0x07 // system reset
	OpRTOF  Opcode = 0x08 // request track off
	OpRTON  Opcode = 0x09 // request track on
	OpRESTP Opcode = 0x0A // request emergency stop all
	OpRSTAT Opcode = 0x0C // request command station status
	OpQNN   Opcode = 0x0D // query node numbers
	OpRQNP  Opcode = 0x10 // request node parameters
	OpRQMN  Opcode = 0x11 // request module name

	// one data octet
	OpKLOC Opcode = 0x21 // release engine session
	OpQLOC Opcode = 0x22 // query engine session
	OpDKEEP Opcode = 0x23 // session keepalive
	OpDBG1 Opcode = 0x30 // debug, one status octet
	OpEXTC Opcode = 0x3F // extended opcode, no extra data

	// two data octets
	OpRLOC  Opcode = 0x40 // request engine session
	OpQCON  Opcode = 0x41 // query consist
	OpSNN   Opcode = 0x42 // set node number
	OpALOC  Opcode = 0x43 // allocate loco to activity
	OpSTMOD Opcode = 0x44 // set throttle mode
	OpPCON  Opcode = 0x45 // put engine in consist
	OpKCON  Opcode = 0x46 // remove engine from consist
	OpDSPD  Opcode = 0x47 // set engine speed/dir
	OpDFLG  Opcode = 0x48 // set engine session flags
	OpDFNON Opcode = 0x49 // engine function on
	OpDFNOF Opcode = 0x4A // engine function off
	OpSSTAT Opcode = 0x4C // service mode status
	OpNNRSM Opcode = 0x4F // reset to manufacturer defaults
	OpRQNN  Opcode = 0x50 // node number request from setup
	OpNNREL Opcode = 0x51 // node number release
	OpNNACK Opcode = 0x52 // node number acknowledge
	OpNNLRN Opcode = 0x53 // enter learn mode
	OpNNULN Opcode = 0x54 // exit learn mode
	OpNNCLR Opcode = 0x55 // clear all events
	OpNNEVN Opcode = 0x56 // request event space left
	OpNERD  Opcode = 0x57 // read back all stored events
	OpRQEVN Opcode = 0x58 // request stored event count
	OpWRACK Opcode = 0x59 // write acknowledge
	OpRQDAT Opcode = 0x5A // request node data event
	OpRQDDS Opcode = 0x5B // request device data short
	OpBOOTM Opcode = 0x5C // enter bootloader mode
	OpENUM  Opcode = 0x5D // force can id self-enumeration
	OpNNRST Opcode = 0x5E // node reset
	OpEXTC1 Opcode = 0x5F // extended opcode, one data octet

	// three data octets
	OpDFUN   Opcode = 0x60 // set engine function range
	OpGLOC   Opcode = 0x61 // get engine session, steal/share
	OpERR    Opcode = 0x63 // command station error report
	OpCMDERR Opcode = 0x6F // node configuration error report
	OpEVNLF  Opcode = 0x70 // event space left reply
	OpNVRD   Opcode = 0x71 // request node variable read
	OpNENRD  Opcode = 0x72 // request stored event by index
	OpRQNPN  Opcode = 0x73 // request node parameter by index
	OpNUMEV  Opcode = 0x74 // stored event count reply
	OpCANID  Opcode = 0x75 // force can id
	OpMODE   Opcode = 0x76 // set node operating mode
	OpRQSD   Opcode = 0x78 // request service discovery
	OpEXTC2  Opcode = 0x7F // extended opcode, two data octets

	// four data octets
	OpRDCC3 Opcode = 0x80 // send 3-byte DCC packet
	OpWCVO  Opcode = 0x82 // write CV byte in ops mode
	OpWCVB  Opcode = 0x83 // write CV bit in ops mode
	OpQCVS  Opcode = 0x84 // read CV in service mode
	OpPCVS  Opcode = 0x85 // report CV in service mode
	OpACON  Opcode = 0x90 // accessory on, long event
	OpACOF  Opcode = 0x91 // accessory off, long event
	OpAREQ  Opcode = 0x92 // accessory state request, long
	OpARON  Opcode = 0x93 // accessory state response on, long
	OpAROF  Opcode = 0x94 // accessory state response off, long
	OpEVULN Opcode = 0x95 // unlearn event
	OpNVSET Opcode = 0x96 // set node variable
	OpNVANS Opcode = 0x97 // node variable reply
	OpASON  Opcode = 0x98 // accessory on, short event
	OpASOF  Opcode = 0x99 // accessory off, short event
	OpASRQ  Opcode = 0x9A // accessory state request, short
	OpPARAN Opcode = 0x9B // node parameter reply
	OpREVAL Opcode = 0x9C // request event variable by index
	OpARSON Opcode = 0x9D // accessory state response on, short
	OpARSOF Opcode = 0x9E // accessory state response off, short
	OpEXTC3 Opcode = 0x9F // extended opcode, three data octets

	// five data octets
	OpRDCC4  Opcode = 0xA0 // send 4-byte DCC packet
	OpWCVS   Opcode = 0xA2 // write CV in service mode
	OpHEARTB Opcode = 0xAB // node heartbeat
	OpGRSP   Opcode = 0xAF // generic command response
	OpACON1  Opcode = 0xB0 // accessory on, long, one data octet
	OpACOF1  Opcode = 0xB1 // accessory off, long, one data octet
	OpREQEV  Opcode = 0xB2 // read event variable in learn mode
	OpARON1  Opcode = 0xB3 // state response on, long, one data octet
	OpAROF1  Opcode = 0xB4 // state response off, long, one data octet
	OpNEVAL  Opcode = 0xB5 // event variable reply
	OpPNN    Opcode = 0xB6 // node number response to query
	OpASON1  Opcode = 0xBD // accessory on, short, one data octet
	OpASOF1  Opcode = 0xBE // accessory off, short, one data octet
	OpEXTC4  Opcode = 0xBF // extended opcode, four data octets

	// six data octets
	OpRDCC5  Opcode = 0xC0 // send 5-byte DCC packet
	OpWCVOA  Opcode = 0xC1 // write CV in ops mode by address
	OpFCLK   Opcode = 0xCF // fast clock broadcast
	OpACON2  Opcode = 0xD0 // accessory on, long, two data octets
	OpACOF2  Opcode = 0xD1 // accessory off, long, two data octets
	OpEVLRN  Opcode = 0xD2 // teach event in learn mode
	OpEVANS  Opcode = 0xD3 // event variable reply in learn mode
	OpARON2  Opcode = 0xD4 // state response on, long, two data octets
	OpAROF2  Opcode = 0xD5 // state response off, long, two data octets
	OpASON2  Opcode = 0xD8 // accessory on, short, two data octets
	OpASOF2  Opcode = 0xD9 // accessory off, short, two data octets
	OpARSON2 Opcode = 0xDD // state response on, short, two data octets
	OpARSOF2 Opcode = 0xDE // state response off, short, two data octets
	OpEXTC5  Opcode = 0xDF // extended opcode, five data octets

	// seven data octets
	OpRDCC6  Opcode = 0xE0 // send 6-byte DCC packet
	OpPLOC   Opcode = 0xE1 // engine session report
	OpNAME   Opcode = 0xE2 // module name reply
	OpSTAT   Opcode = 0xE3 // command station status report
	OpENACK  Opcode = 0xE6 // event acknowledge
	OpESD    Opcode = 0xE7 // extended service discovery reply
	OpDTXC   Opcode = 0xE9 // long-message transfer chunk
	OpPARAMS Opcode = 0xEF // node parameters reply from setup
	OpACON3  Opcode = 0xF0 // accessory on, long, three data octets
	OpACOF3  Opcode = 0xF1 // accessory off, long, three data octets
	OpENRSP  Opcode = 0xF2 // stored event readback reply
	OpARON3  Opcode = 0xF3 // state response on, long, three data octets
	OpAROF3  Opcode = 0xF4 // state response off, long, three data octets
	OpEVLRNI Opcode = 0xF5 // teach event by index in learn mode
	OpACDAT  Opcode = 0xF6 // accessory node data event
	OpARDAT  Opcode = 0xF7 // accessory node data response
	OpASON3  Opcode = 0xF8 // accessory on, short, three data octets
	OpASOF3  Opcode = 0xF9 // accessory off, short, three data octets
	OpDDES   Opcode = 0xFA // device data event, short
	OpDDRS   Opcode = 0xFB // device data response, short
	OpDDWS   Opcode = 0xFC // device data write, short
	OpARSON3 Opcode = 0xFD // state response on, short, three data octets
	OpARSOF3 Opcode = 0xFE // state response off, short, three data octets
	OpEXTC6  Opcode = 0xFF // extended opcode, six data octets
)

var opcodeNames = map[Opcode]string{
	OpACK: "ACK", OpNAK: "NAK", OpHLT: "HLT", OpBON: "BON",
	OpTOF: "TOF", OpTON: "TON", OpESTOP: "ESTOP", OpARST: "ARST",
	OpRTOF: "RTOF", OpRTON: "RTON", OpRESTP: "RESTP", OpRSTAT: "RSTAT",
	OpQNN: "QNN", OpRQNP: "RQNP", OpRQMN: "RQMN",
	OpKLOC: "KLOC", OpQLOC: "QLOC", OpDKEEP: "DKEEP", OpDBG1: "DBG1",
	OpEXTC: "EXTC",
	OpRLOC: "RLOC", OpQCON: "QCON", OpSNN: "SNN", OpALOC: "ALOC",
	OpSTMOD: "STMOD", OpPCON: "PCON", OpKCON: "KCON", OpDSPD: "DSPD",
	OpDFLG: "DFLG", OpDFNON: "DFNON", OpDFNOF: "DFNOF", OpSSTAT: "SSTAT",
	OpNNRSM: "NNRSM", OpRQNN: "RQNN", OpNNREL: "NNREL", OpNNACK: "NNACK",
	OpNNLRN: "NNLRN", OpNNULN: "NNULN", OpNNCLR: "NNCLR", OpNNEVN: "NNEVN",
	OpNERD: "NERD", OpRQEVN: "RQEVN", OpWRACK: "WRACK", OpRQDAT: "RQDAT",
	OpRQDDS: "RQDDS", OpBOOTM: "BOOTM", OpENUM: "ENUM", OpNNRST: "NNRST",
	OpEXTC1: "EXTC1",
	OpDFUN: "DFUN", OpGLOC: "GLOC", OpERR: "ERR", OpCMDERR: "CMDERR",
	OpEVNLF: "EVNLF", OpNVRD: "NVRD", OpNENRD: "NENRD", OpRQNPN: "RQNPN",
	OpNUMEV: "NUMEV", OpCANID: "CANID", OpMODE: "MODE", OpRQSD: "RQSD",
	OpEXTC2: "EXTC2",
	OpRDCC3: "RDCC3", OpWCVO: "WCVO", OpWCVB: "WCVB", OpQCVS: "QCVS",
	OpPCVS: "PCVS", OpACON: "ACON", OpACOF: "ACOF", OpAREQ: "AREQ",
	OpARON: "ARON", OpAROF: "AROF", OpEVULN: "EVULN", OpNVSET: "NVSET",
	OpNVANS: "NVANS", OpASON: "ASON", OpASOF: "ASOF", OpASRQ: "ASRQ",
	OpPARAN: "PARAN", OpREVAL: "REVAL", OpARSON: "ARSON", OpARSOF: "ARSOF",
	OpEXTC3: "EXTC3",
	OpRDCC4: "RDCC4", OpWCVS: "WCVS", OpHEARTB: "HEARTB", OpGRSP: "GRSP",
	OpACON1: "ACON1", OpACOF1: "ACOF1", OpREQEV: "REQEV", OpARON1: "ARON1",
	OpAROF1: "AROF1", OpNEVAL: "NEVAL", OpPNN: "PNN", OpASON1: "ASON1",
	OpASOF1: "ASOF1", OpEXTC4: "EXTC4",
	OpRDCC5: "RDCC5", OpWCVOA: "WCVOA", OpFCLK: "FCLK", OpACON2: "ACON2",
	OpACOF2: "ACOF2", OpEVLRN: "EVLRN", OpEVANS: "EVANS", OpARON2: "ARON2",
	OpAROF2: "AROF2", OpASON2: "ASON2", OpASOF2: "ASOF2", OpARSON2: "ARSON2",
	OpARSOF2: "ARSOF2", OpEXTC5: "EXTC5",
	OpRDCC6: "RDCC6", OpPLOC: "PLOC", OpNAME: "NAME", OpSTAT: "STAT", OpENACK: "ENACK",
	OpESD: "ESD", OpDTXC: "DTXC", OpPARAMS: "PARAMS", OpACON3: "ACON3",
	OpACOF3: "ACOF3", OpENRSP: "ENRSP", OpARON3: "ARON3", OpAROF3: "AROF3",
	OpEVLRNI: "EVLRNI", OpACDAT: "ACDAT", OpARDAT: "ARDAT", OpASON3: "ASON3",
	OpASOF3: "ASOF3", OpDDES: "DDES", OpDDRS: "DDRS", OpDDWS: "DDWS",
	OpARSON3: "ARSON3", OpARSOF3: "ARSOF3", OpEXTC6: "EXTC6",
}

// Known reports whether the opcode is in the recognized table. Unknown
// opcodes are discarded at the packet codec, not here.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

// DataLen returns the number of data octets that follow the opcode octet.
func (o Opcode) DataLen() int {
	return int(o >> 5)
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(0x%02X)", uint8(o))
}

// ExtensionOpcode returns the extended-opcode lead octet whose packet
// carries dataLen octets after the extension octet.
func ExtensionOpcode(dataLen int) (Opcode, bool) {
	switch dataLen {
	case 0:
		return OpEXTC, true
	case 1:
		return OpEXTC1, true
	case 2:
		return OpEXTC2, true
	case 3:
		return OpEXTC3, true
	case 4:
		return OpEXTC4, true
	case 5:
		return OpEXTC5, true
	case 6:
		return OpEXTC6, true
	}
	return 0, false
}

// IsExtension reports whether the opcode is one of the EXTC lead octets.
func (o Opcode) IsExtension() bool {
	switch o {
	case OpEXTC, OpEXTC1, OpEXTC2, OpEXTC3, OpEXTC4, OpEXTC5, OpEXTC6:
		return true
	}
	return false
}

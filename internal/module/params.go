package module

import (
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

// ParamCount is the size of the node parameter table. Index 0 reports the
// count itself, so readable indices run 1..ParamCount.
const ParamCount = 20

// Parameter table indices. The first seven are the setup-mode parameter
// block a configuration tool reads before the node has a number.
const (
	ParamManufacturer  = 1  // manufacturer code
	ParamMinorVersion  = 2  // firmware minor version, ascii letter
	ParamModuleID      = 3  // module type within the manufacturer's range
	ParamMaxEvents     = 4  // taught event capacity
	ParamEventVarCount = 5  // event variables per event
	ParamNodeVarCount  = 6  // node variable count
	ParamMajorVersion  = 7  // firmware major version
	ParamFlags         = 8  // node flags word
	ParamCPUID         = 9  // processor id
	ParamBusType       = 10 // transport medium code
	ParamLoadAddress   = 11 // firmware load address, four octets
	ParamCPUMID        = 15 // processor manufacturer id, four octets
	ParamCPUMan        = 19 // processor manufacturer code
	ParamBetaVersion   = 20 // beta build number, zero for release
)

// busTypeCAN is the ParamBusType code for a CAN transport.
const busTypeCAN = 1

// Version is a firmware version triple. Minor is an ascii letter by
// convention; Beta zero means a release build.
type Version struct {
	Major uint8
	Minor byte
	Beta  uint8
}

func (v Version) String() string {
	if v.Beta == 0 {
		return fmt.Sprintf("%d%c", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d%c-beta%d", v.Major, v.Minor, v.Beta)
}

// Identity is everything fixed about a module build. The runtime folds it
// into the parameter table once at construction.
type Identity struct {
	Manufacturer uint8
	ModuleID     uint8
	// Name is the module type name without its medium prefix, at most
	// seven ascii octets.
	Name    string
	Version Version
	Flags   vlcb.NodeFlags

	MaxEvents     uint8
	EventVarCount uint8
	NodeVarCount  uint8
}

// Params is the node parameter table, 1-indexed like the wire protocol
// that reads it.
type Params [ParamCount]uint8

// NewParams folds a module identity into a parameter table.
func NewParams(id Identity) Params {
	var p Params
	p.set(ParamManufacturer, id.Manufacturer)
	p.set(ParamMinorVersion, id.Version.Minor)
	p.set(ParamModuleID, id.ModuleID)
	p.set(ParamMaxEvents, id.MaxEvents)
	p.set(ParamEventVarCount, id.EventVarCount)
	p.set(ParamNodeVarCount, id.NodeVarCount)
	p.set(ParamMajorVersion, id.Version.Major)
	p.set(ParamFlags, uint8(id.Flags))
	p.set(ParamBusType, busTypeCAN)
	p.set(ParamBetaVersion, id.Version.Beta)
	return p
}

func (p *Params) set(index int, value uint8) {
	p[index-1] = value
}

// Get reads a parameter by wire index. Index 0 returns the table size;
// out-of-range indices report false.
func (p *Params) Get(index uint8) (uint8, bool) {
	if index == 0 {
		return ParamCount, true
	}
	if int(index) > ParamCount {
		return 0, false
	}
	return p[index-1], true
}

// SetupBlock returns the seven-octet parameter block a node reports while
// in setup mode.
func (p *Params) SetupBlock() [7]byte {
	var b [7]byte
	copy(b[:], p[0:7])
	return b
}

package construct

import (
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

// maxExtendedData is how much data rides behind the extension octet once
// one of the seven data slots carries the extended opcode itself.
const maxExtendedData = 6

// Extended builds a packet in the extension opcode space: the lead octet
// is the EXTC variant for the data length, the first data octet is the
// extended opcode and the rest is its payload. The extension space has no
// formal assignments yet; it exists for protocols the 32 base opcodes
// cannot carry.
func Extended(opcodeExt uint8, data []byte) (Payload, error) {
	if len(data) > maxExtendedData {
		return Payload{}, fmt.Errorf("%w: %d extended data octets, max %d", ErrBadLength, len(data), maxExtendedData)
	}
	op, ok := vlcb.ExtensionOpcode(len(data))
	if !ok {
		return Payload{}, fmt.Errorf("%w: no extension lead octet for %d data octets", ErrBadLength, len(data))
	}
	buf := make([]byte, 0, 1+maxExtendedData)
	buf = append(buf, opcodeExt)
	buf = append(buf, data...)
	return packet(op, buf...), nil
}

// ExtendedNoData builds the zero-payload extension form.
func ExtendedNoData(opcodeExt uint8) Payload {
	return packet(vlcb.OpEXTC, opcodeExt)
}

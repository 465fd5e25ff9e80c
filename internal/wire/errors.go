package wire

import "errors"

var (
	ErrTruncated          = errors.New("wire: buffer too short")
	ErrPayloadTooLarge    = errors.New("wire: payload exceeds capacity")
	ErrUnrecognizedOpcode = errors.New("wire: unrecognized opcode")
	ErrBadAddress         = errors.New("wire: malformed hardware address")
)

package socket

import "errors"

var (
	ErrBufferFull = errors.New("socket: send buffer full")
	ErrExhausted  = errors.New("socket: receive buffer exhausted")
	ErrTruncated  = errors.New("socket: destination slice too short")
	ErrTooLarge   = errors.New("socket: packet exceeds wire capacity")
)

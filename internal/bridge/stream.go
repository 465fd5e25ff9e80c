package bridge

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/railcan/internal/wire"
)

// ErrFraming marks a stream whose length prefix cannot be honored. The
// stream has lost sync; the only recovery is reconnecting.
var ErrFraming = errors.New("bridge: malformed frame stream")

// readFrame reads one length-prefixed frame into buf and returns the
// frame length. buf must hold wire.MaxFrameLen octets.
func readFrame(r *bufio.Reader, buf []byte) (int, error) {
	n, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if int(n) < wire.FrameHeaderLen || int(n) > wire.MaxFrameLen {
		return 0, fmt.Errorf("%w: length prefix %d", ErrFraming, n)
	}
	if _, err := io.ReadFull(r, buf[:n]); err != nil {
		return 0, err
	}
	return int(n), nil
}

// writeFrame writes one length-prefixed frame. The caller serializes
// writers; the stream has no interleaving protection of its own.
func writeFrame(w io.Writer, frame []byte) error {
	if len(frame) < wire.FrameHeaderLen || len(frame) > wire.MaxFrameLen {
		return fmt.Errorf("%w: frame length %d", ErrFraming, len(frame))
	}
	var buf [1 + wire.MaxFrameLen]byte
	buf[0] = byte(len(frame))
	n := 1 + copy(buf[1:], frame)
	_, err := w.Write(buf[:n])
	return err
}

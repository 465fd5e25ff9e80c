package socket

import (
	"bytes"
	"testing"
	"time"

	"github.com/danmuck/railcan/internal/storage"
	"github.com/danmuck/railcan/internal/testutil/testlog"
	"github.com/danmuck/railcan/internal/vlcb"
	"github.com/danmuck/railcan/internal/wire"
)

func newLongMsgSocket() *LongMsg {
	rx := storage.NewPacketBuffer(make([]storage.PacketMetadata, 4), make([]byte, 64))
	tx := storage.NewPacketBuffer(make([]storage.PacketMetadata, 4), make([]byte, 64))
	return NewLongMsg(rx, tx)
}

func dtxcChunk(seq byte) []byte {
	return []byte{uint8(vlcb.OpDTXC), seq, 1, 2, 3, 4, 5, 6}
}

func TestLongMsgPassesChunksThrough(t *testing.T) {
	testlog.Start(t)
	s := newLongMsgSocket()
	s.Process(wire.NewPacket(dtxcChunk(0)))
	s.Process(wire.NewPacket(dtxcChunk(1)))
	for i := byte(0); i < 2; i++ {
		got, err := s.Recv()
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		if !bytes.Equal(got, dtxcChunk(i)) {
			t.Fatalf("chunk %d reordered or altered: %x", i, got)
		}
	}
}

func TestLongMsgPollAtPrefersSendThenDeadline(t *testing.T) {
	testlog.Start(t)
	s := newLongMsgSocket()
	if s.PollAt().When() != PollIngress {
		t.Fatalf("idle: %v", s.PollAt())
	}

	deadline := time.Unix(1000, 0)
	s.SetReassemblyDeadline(deadline)
	at := s.PollAt()
	if at.When() != PollTime {
		t.Fatalf("armed deadline: %v", at)
	}
	if got, ok := at.Deadline(); !ok || !got.Equal(deadline) {
		t.Fatalf("deadline lost: %v ok=%v", got, ok)
	}

	if err := s.SendSlice(dtxcChunk(9)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if s.PollAt().When() != PollNow {
		t.Fatalf("queued send outranks deadline: %v", s.PollAt())
	}

	s.SetReassemblyDeadline(time.Time{})
	_ = s.Dispatch(func(pkt []byte) error { return nil })
	if s.PollAt().When() != PollIngress {
		t.Fatalf("cleared state: %v", s.PollAt())
	}
}

func TestLongMsgKind(t *testing.T) {
	testlog.Start(t)
	var s Socket = newLongMsgSocket()
	if s.Kind() != KindLongMsg {
		t.Fatalf("kind = %v", s.Kind())
	}
	if _, ok := LongMsgOf(s); !ok {
		t.Fatalf("LongMsgOf failed")
	}
}

package iface

import (
	"testing"
	"time"

	"github.com/danmuck/railcan/internal/testutil/testlog"
	"github.com/danmuck/railcan/internal/vlcb"
)

func TestEnumeratorRoundResolvesLowestFree(t *testing.T) {
	testlog.Start(t)
	t0 := time.Now()
	var e enumerator

	e.request(t0)
	if e.phase != enumPending {
		t.Fatalf("phase after request = %d, want pending", e.phase)
	}

	// First poll opens the window.
	if _, closed := e.poll(t0); closed {
		t.Fatalf("round closed while opening its window")
	}
	if e.phase != enumActive {
		t.Fatalf("phase after opening poll = %d, want active", e.phase)
	}

	for _, id := range []uint8{1, 2, 3, 5} {
		e.observe(vlcb.NewCanID(id))
	}

	// Still inside the window: no resolution yet.
	if _, closed := e.poll(t0.Add(enumWindow / 2)); closed {
		t.Fatalf("round closed before its window elapsed")
	}

	id, closed := e.poll(t0.Add(enumWindow))
	if !closed {
		t.Fatalf("round still open after its window elapsed")
	}
	if id != 4 {
		t.Fatalf("resolved id = %v, want can:4", id)
	}
	if e.phase != enumIdle {
		t.Fatalf("phase after resolution = %d, want idle", e.phase)
	}
}

func TestEnumeratorIgnoresClaimsOutsideWindow(t *testing.T) {
	testlog.Start(t)
	var e enumerator

	e.observe(vlcb.NewCanID(1))
	if e.claimed(vlcb.NewCanID(1)) {
		t.Fatalf("claim recorded while idle")
	}

	t0 := time.Now()
	e.request(t0)
	e.observe(vlcb.NewCanID(1))
	if e.claimed(vlcb.NewCanID(1)) {
		t.Fatalf("claim recorded before the window opened")
	}

	e.poll(t0)
	e.observe(vlcb.NewCanID(1))
	if !e.claimed(vlcb.NewCanID(1)) {
		t.Fatalf("claim inside the window not recorded")
	}
}

func TestEnumeratorFullBusResolvesToZero(t *testing.T) {
	testlog.Start(t)
	t0 := time.Now()
	var e enumerator

	e.request(t0)
	e.poll(t0)
	for id := 1; id <= int(vlcb.CanIDMask); id++ {
		e.observe(vlcb.NewCanID(uint8(id)))
	}

	id, closed := e.poll(t0.Add(enumWindow))
	if !closed {
		t.Fatalf("round still open after its window elapsed")
	}
	if id != 0 {
		t.Fatalf("resolved id on a full bus = %v, want can:0", id)
	}
}

func TestEnumeratorDeadline(t *testing.T) {
	testlog.Start(t)
	t0 := time.Now()
	var e enumerator

	if _, ok := e.deadline(); ok {
		t.Fatalf("idle enumerator reports a deadline")
	}

	e.request(t0)
	if d, ok := e.deadline(); !ok || !d.Equal(t0) {
		t.Fatalf("pending deadline = %v ok=%v, want %v", d, ok, t0)
	}

	e.poll(t0)
	if d, ok := e.deadline(); !ok || !d.Equal(t0.Add(enumWindow)) {
		t.Fatalf("active deadline = %v ok=%v, want %v", d, ok, t0.Add(enumWindow))
	}
}

package iface

import (
	"time"

	"github.com/danmuck/railcan/internal/vlcb"
)

// enumWindow is how long an enumeration round listens for claims before
// resolving. Matches the 100ms window the bus protocol allots responders.
const enumWindow = 100 * time.Millisecond

type enumPhase uint8

const (
	enumIdle enumPhase = iota
	// enumPending marks a requested round whose window has not opened yet.
	// The next poll opens it; emitting the query frame on the bus is left
	// to the transport bindings.
	enumPending
	enumActive
)

// enumerator tracks one arbitration-id enumeration round. Responders claim
// their ids during the window; when it closes the lowest unclaimed id wins.
type enumerator struct {
	phase     enumPhase
	startedAt time.Time
	seen      [16]byte
}

func (e *enumerator) request(now time.Time) {
	e.phase = enumPending
	e.startedAt = now
	e.seen = [16]byte{}
}

// observe records a claim heard during an open window. Claims outside a
// window are ignored.
func (e *enumerator) observe(id vlcb.CanID) {
	if e.phase != enumActive {
		return
	}
	e.seen[id>>3] |= 1 << (id & 0x07)
}

func (e *enumerator) claimed(id vlcb.CanID) bool {
	return e.seen[id>>3]&(1<<(id&0x07)) != 0
}

// poll advances the machine. A pending round opens its window; an active
// round past its deadline resolves. The second return is true only when a
// round closed this call; a zero id then means every id was claimed.
func (e *enumerator) poll(now time.Time) (vlcb.CanID, bool) {
	switch e.phase {
	case enumPending:
		e.phase = enumActive
		e.startedAt = now
	case enumActive:
		if now.Sub(e.startedAt) >= enumWindow {
			e.phase = enumIdle
			return e.lowestFree(), true
		}
	}
	return 0, false
}

// deadline reports when poll next needs to run for the machine to make
// progress.
func (e *enumerator) deadline() (time.Time, bool) {
	switch e.phase {
	case enumPending:
		return e.startedAt, true
	case enumActive:
		return e.startedAt.Add(enumWindow), true
	}
	return time.Time{}, false
}

// lowestFree picks the smallest unclaimed id. Id 0 is never assigned, so
// returning it means every id on the segment is taken.
func (e *enumerator) lowestFree() vlcb.CanID {
	for id := vlcb.CanID(1); id <= vlcb.CanID(vlcb.CanIDMask); id++ {
		if !e.claimed(id) {
			return id
		}
	}
	return 0
}

package iface

import (
	"fmt"

	"github.com/danmuck/railcan/internal/socket"
)

// Handle names a socket inside a SocketSet. Handles stay valid until the
// socket is removed; a removed slot may be reissued by a later Add.
type Handle int

func (h Handle) String() string {
	return fmt.Sprintf("sock:%d", h)
}

// SocketStorage is one slot of caller-supplied set storage. The zero value
// is a free slot.
type SocketStorage struct {
	inner socket.Socket
}

// SocketSet holds the sockets an Interface services. A set built over
// caller-supplied storage never grows; a growable set allocates slots on
// demand.
type SocketSet struct {
	slots    []SocketStorage
	growable bool
	count    int
}

// NewSocketSet builds a fixed-capacity set over the supplied storage.
// Add panics once every slot is occupied.
func NewSocketSet(storage []SocketStorage) *SocketSet {
	for i := range storage {
		storage[i].inner = nil
	}
	return &SocketSet{slots: storage}
}

// NewGrowableSocketSet builds a set that allocates slots as sockets are
// added.
func NewGrowableSocketSet() *SocketSet {
	return &SocketSet{growable: true}
}

// Count reports how many sockets the set currently holds.
func (s *SocketSet) Count() int {
	return s.count
}

// Add places sk in the first free slot and returns its handle. Adding to a
// full fixed-capacity set panics; sizing the storage is the caller's job.
func (s *SocketSet) Add(sk socket.Socket) Handle {
	if sk == nil {
		panic("iface: adding a nil socket")
	}
	for i := range s.slots {
		if s.slots[i].inner == nil {
			s.slots[i].inner = sk
			s.count++
			return Handle(i)
		}
	}
	if !s.growable {
		panic("iface: socket set is full")
	}
	s.slots = append(s.slots, SocketStorage{inner: sk})
	s.count++
	return Handle(len(s.slots) - 1)
}

// Get returns the socket behind h. It panics on a stale or out-of-range
// handle; handles are program state, not input.
func (s *SocketSet) Get(h Handle) socket.Socket {
	if int(h) < 0 || int(h) >= len(s.slots) || s.slots[h].inner == nil {
		panic(fmt.Sprintf("iface: no socket behind %v", h))
	}
	return s.slots[h].inner
}

// Remove frees the slot behind h and returns the evicted socket. Like Get
// it panics when the handle does not name a live socket.
func (s *SocketSet) Remove(h Handle) socket.Socket {
	sk := s.Get(h)
	s.slots[h].inner = nil
	s.count--
	return sk
}

// Each calls f for every live socket in slot order. Returning false stops
// the walk.
func (s *SocketSet) Each(f func(Handle, socket.Socket) bool) {
	for i := range s.slots {
		if s.slots[i].inner == nil {
			continue
		}
		if !f(Handle(i), s.slots[i].inner) {
			return
		}
	}
}

package socket

import (
	"fmt"
	"time"
)

// PollWhen classifies how soon a socket needs service.
type PollWhen uint8

const (
	// PollNow means the socket has outbound work queued.
	PollNow PollWhen = iota
	// PollTime means the socket sleeps until a deadline.
	PollTime
	// PollIngress means only inbound traffic can create work.
	PollIngress
)

// PollAt is a socket's scheduling hint to its owning interface.
type PollAt struct {
	when PollWhen
	at   time.Time
}

func Now() PollAt {
	return PollAt{when: PollNow}
}

func At(t time.Time) PollAt {
	return PollAt{when: PollTime, at: t}
}

func OnIngress() PollAt {
	return PollAt{when: PollIngress}
}

func (p PollAt) When() PollWhen {
	return p.when
}

// Deadline returns the wake time for PollTime hints.
func (p PollAt) Deadline() (time.Time, bool) {
	if p.when != PollTime {
		return time.Time{}, false
	}
	return p.at, true
}

func (p PollAt) String() string {
	switch p.when {
	case PollNow:
		return "now"
	case PollTime:
		return fmt.Sprintf("at %s", p.at.Format(time.RFC3339Nano))
	case PollIngress:
		return "ingress"
	}
	return "PollAt(?)"
}

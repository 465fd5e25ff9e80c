package module

import "time"

// UI is the operator surface collaborator: an LED, a pushbutton, whatever
// the hardware carries. The runtime polls it alongside the network and
// signals bus activity; everything else is the embedder's business.
type UI interface {
	Poll(now time.Time)
	IsMainSwitchPressed() bool
	IndicateActivity()
}

// NopUI satisfies UI for headless builds.
type NopUI struct{}

func (NopUI) Poll(time.Time)            {}
func (NopUI) IsMainSwitchPressed() bool { return false }
func (NopUI) IndicateActivity()         {}

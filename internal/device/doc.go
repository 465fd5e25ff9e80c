// Package device owns the transport boundary.
//
// Ownership boundary:
// - the token-based device contract the interface polls
// - the loopback device
// - the SLCAN serial-adapter driver
//
// Device methods never block. Drivers that front real hardware pump it
// with internal goroutines into bounded queues; the contract surface stays
// poll-and-return.
package device

// Package iface owns the polling engine.
//
// Ownership boundary:
// - interface addressing (node number, bus arbitration id)
// - the socket set and its handles
// - the ingress/egress fixed-point poll
// - the can-id self-enumeration state machine
//
// One thread drives everything. Poll never blocks and never spins past a
// pass in which nothing moved.
package iface

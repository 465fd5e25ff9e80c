// Package module composes a running node: device, interface, sockets,
// configuration and UI bound into one cooperative poll loop.
//
// Ownership boundary:
// - the node parameter table and module identity
// - the UI collaborator contract
// - the runtime that seeds addressing from config and drives Poll
//
// Nothing here touches the wire; the interface owns that. The runtime only
// decides when to poll and what identity the node presents.
package module

// Package nodecfg owns the node's persisted configuration.
//
// Ownership boundary:
// - the NodeConfig collaborator interface the module runtime consumes
// - the memory-backed implementation with bounded tables
// - TOML snapshot persistence for the memory implementation
//
// The network core never writes here; it seeds its addressing state from a
// NodeConfig at startup and hands changed addresses back between polls.
package nodecfg

// Package vlcb owns the protocol's core identity types.
//
// Ownership boundary:
// - bus arbitration ids and node numbers
// - event identity and event kinds
// - the opcode identity table
// - node mode and flag words
//
// No wire parsing lives here; see internal/wire for the codecs.
package vlcb

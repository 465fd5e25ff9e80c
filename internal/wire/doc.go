// Package wire owns the bit-packed codecs.
//
// Ownership boundary:
// - bus frame header and payload views
// - protocol packet header views and parsed reprs
// - hardware address forms
//
// Views borrow caller buffers and never allocate. Reprs are parsed,
// buffer-independent values safe to hold across polls.
package wire

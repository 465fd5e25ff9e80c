// Package socket owns the application-facing packet queues.
//
// Ownership boundary:
// - the closed set of socket kinds
// - per-socket bounded rx/tx queues
// - poll scheduling hints
//
// Sockets never touch the device. The interface layer feeds Process and
// drains Dispatch; applications use the Send/Recv surface.
package socket

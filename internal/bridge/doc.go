// Package bridge serves a CAN device over TCP so a node can run against
// remote hardware.
//
// Ownership boundary:
// - the length-prefixed frame stream both ends speak
// - the server that pumps a local device to its clients
// - the client, which is itself a device.Device
//
// The stream carries whole bus frames, header included. Frames arriving
// from the device fan out to every client; a frame sent by a client goes
// to the device only, exactly like a node keying onto a shared bus.
package bridge

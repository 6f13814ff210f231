// Package stream manages transport connections for the relay.
//
// Every connection is owned by a Session, which walks a fixed lifecycle:
//
//	Connecting → Active → Draining → Closed
//
// A session registers with the hub when its transport handshake succeeds
// (Active), stops accepting subscriptions and flushes its remaining queue
// when the transport fails or shuts down (Draining), and runs its single
// hub detach when it terminates (Closed). A handshake that never succeeds
// skips registration entirely.
//
// Two transports are provided: ServeSSE streams over Server-Sent Events
// with channel selection fixed at connect time, and ServeWS streams over
// WebSocket and additionally accepts subscribe/unsubscribe control messages
// which are acked once the registry reflects them.
package stream

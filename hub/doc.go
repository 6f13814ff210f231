// Package hub implements relay's in-process broadcast fan-out core.
//
//   - Registry: sharded channel → subscriber-set map with per-channel
//     sequence counters
//   - Queue: bounded per-subscriber outbound queue with a configurable
//     overflow policy
//   - Publisher: snapshots subscribers and hands events to their queues,
//     best-effort, never blocking on subscriber I/O
//   - Hub: ties the registry to the table of attached connection queues
//
// Transports (see the stream package) attach a queue per connection and run
// a drain loop that writes dequeued events to the wire.
package hub

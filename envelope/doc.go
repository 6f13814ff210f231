// Package envelope defines the broadcast event type and its versioned wire
// codec. Encoding is deterministic JSON with a format-version tag so future
// schema changes can be detected by receivers.
package envelope

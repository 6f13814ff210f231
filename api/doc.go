// Package api implements the relay's HTTP surface: event publishing,
// SSE and WebSocket stream attachment, and channel inspection.
package api

// Package server provides the relay's HTTP server: Gin with HTTP/2 h2c
// support so REST endpoints and long-lived streams share one port.
//
// The server follows the component pattern with lifecycle management,
// health endpoints, and configurable middleware.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - RequestID: Request ID generation and propagation
//   - CORS: Cross-origin resource sharing configuration
//   - BodySize: Request body size limits
//   - Logging: Request/response logging with duration tracking
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: Health check aggregation
//   - /alive: Kubernetes liveness probe
//   - /ready: Kubernetes readiness probe
//   - /info: Build and uptime information
//   - /metrics: Runtime memory and goroutine metrics
package server

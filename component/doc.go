// Package component defines the lifecycle contract for relay's
// infrastructure components and a registry that starts them in
// registration order and stops them in reverse.
package component

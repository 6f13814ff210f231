// Package util provides small generic helpers shared across relay packages:
// size-string parsing and slice operations.
package util

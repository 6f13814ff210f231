// Package version provides build version information for the relay binary.
//
// Version, git commit, and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/skillsenselab/relay/version.Version=1.2.0"
package version

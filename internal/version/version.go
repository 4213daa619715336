// Package version holds the smelt build version.
package version

// Version is the current smelt version, overridden at build time via
// -ldflags "-X smelt/internal/version.Version=..."
var Version = "0.4.0"

// Package build carries version information stamped at link time.
package build

import "fmt"

// These variables are set at build time via -ldflags.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// String returns a single human-readable build info string.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitSHA, BuildDate)
}

// Info returns the build information as a JSON-friendly map.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     CommitSHA,
		"build_date": BuildDate,
	}
}

package version

import (
	"fmt"
	"runtime"
)

// Build information set by the compiler flags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// FullVersion returns the full version string including git commit and build time.
func FullVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s)", Version, GitCommit, BuildTime, GoVersion)
}

// UserAgent returns the stable User-Agent header sent with every outbound
// provider request (usage probe, refresh exchange, profile lookup).
func UserAgent() string {
	return fmt.Sprintf("keyrotate/%s", Version)
}

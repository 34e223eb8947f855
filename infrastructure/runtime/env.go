// Package runtime provides the one piece of environment detection the
// engine actually needs: whether this invocation is a hook spawned by the
// host session (lifecycle glue reads this instead of a package-level
// global), plus the small env-var bool parser that backs it.
package runtime

import (
	"os"
	"strings"
)

// SpawnedSession reports whether this invocation was spawned by the host
// session rather than run by a user or the daemon directly. The hook
// lifecycle uses this to suppress output it would otherwise emit.
func SpawnedSession() bool {
	return ParseBoolValue(strings.TrimSpace(os.Getenv("KEYROTATE_SPAWNED_SESSION")))
}

// ParseBoolValue parses common truthy string forms. Unrecognized input
// (including empty string) is false.
func ParseBoolValue(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Package redaction keeps access and refresh tokens out of every log line
// the engine writes. It is deliberately narrow: the engine's only secrets
// are OAuth tokens, so the generic multi-pattern redactor the teacher used
// for a public HTTP API surface is trimmed to what this engine actually
// handles.
package redaction

import (
	"regexp"
	"strings"
)

var tokenFieldPattern = regexp.MustCompile(`(?i)(access[_-]?token|refresh[_-]?token|bearer|authorization|secret|password)`)

var bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]+`)

// FirstEightHex returns the first eight hex characters of a key_id, the
// only form a key identifier is ever allowed to appear in in a log line.
// keyID shorter than eight characters is returned unchanged.
func FirstEightHex(keyID string) string {
	if len(keyID) <= 8 {
		return keyID
	}
	return keyID[:8]
}

// RedactString replaces any "Bearer <token>" substring with a fixed marker.
func RedactString(s string) string {
	return bearerPattern.ReplaceAllString(s, "Bearer ***REDACTED***")
}

// RedactTokenFields returns a copy of fields with any key that looks like it
// holds a token, secret, or credential replaced by a fixed marker. Non-string
// values and non-secret keys pass through unchanged.
func RedactTokenFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if tokenFieldPattern.MatchString(k) {
			out[k] = "***REDACTED***"
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = RedactString(s)
			continue
		}
		out[k] = v
	}
	return out
}

// IsSecretField reports whether a field name looks like it holds a secret.
func IsSecretField(name string) bool {
	return tokenFieldPattern.MatchString(strings.TrimSpace(name))
}

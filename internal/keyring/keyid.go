package keyring

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// providerTokenPrefixes lists the provider-specific access-token prefixes
// stripped before hashing, so a token re-issued under a different prefix
// convention still derives the same key_id. The first matching prefix wins,
// so the longer "sk-ant-oat01-" must stay ahead of "sk-ant-", which is
// itself a prefix of it.
var providerTokenPrefixes = []string{
	"sk-ant-oat01-",
	"sk-ant-",
}

// ComputeKeyID derives the stable key_id for an access token: the first 16
// hex characters of SHA-256(token) after stripping a known provider prefix.
// Deterministic and reimplemented identically by every caller (sync, health
// prober, refresh client) per spec.
func ComputeKeyID(accessToken string) string {
	stripped := stripProviderPrefix(accessToken)
	sum := sha256.Sum256([]byte(stripped))
	return hex.EncodeToString(sum[:])[:16]
}

func stripProviderPrefix(token string) string {
	for _, prefix := range providerTokenPrefixes {
		if strings.HasPrefix(token, prefix) {
			return strings.TrimPrefix(token, prefix)
		}
	}
	return token
}

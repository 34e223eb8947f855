// Package credsource discovers OAuth credential material from on-disk
// sources and reconciles it into the canonical keyring: the sync half of
// the engine's discover -> merge -> refresh -> prune contract.
package credsource

import "context"

// DiscoveredCredential is one raw credential yielded by a Source, before
// key_id derivation or reconciliation against the keyring.
type DiscoveredCredential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *int64 // epoch ms; nil means unknown
}

// Source yields zero or more credentials from one place on the local
// machine. A missing backing location yields no credentials and no error —
// a missing per-project file is normal; an unreadable or malformed one is
// returned as an error, and Syncer.Sync skips that source.
type Source interface {
	Discover(ctx context.Context) ([]DiscoveredCredential, error)
}

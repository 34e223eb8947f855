package credsource

import (
	"context"
	"encoding/json"
	"os"
)

// fileCredential is the on-disk shape both file sources read: a JSON array
// of credential triples.
type fileCredential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
}

// FileSource reads a JSON array of credentials from a single path. Used for
// both the home-directory source and any per-project source the host
// exposes; the only difference between the two is the path they're given.
type FileSource struct {
	Path string
}

// NewHomeSource builds the source reading the host's per-user credential
// file, e.g. ~/.keyrotate/credentials.json (see pkg/config.KeyringConfig).
func NewHomeSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// NewProjectSource builds the source reading an additional per-project
// credential file, when the host exposes one alongside its own state.
func NewProjectSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Discover reads and parses Path. A missing file yields no credentials and
// no error; a malformed file is returned as an error, which Syncer.Sync
// skips without logging it, so it never blocks discovery from other sources.
func (s *FileSource) Discover(ctx context.Context) ([]DiscoveredCredential, error) {
	if s.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raw []fileCredential
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make([]DiscoveredCredential, 0, len(raw))
	for _, c := range raw {
		if c.AccessToken == "" {
			continue
		}
		dc := DiscoveredCredential{
			AccessToken:  c.AccessToken,
			RefreshToken: c.RefreshToken,
			ExpiresAt:    c.ExpiresAt,
		}
		if dc.ExpiresAt == nil {
			if exp, ok := jwtExpiryMillis(dc.AccessToken); ok {
				dc.ExpiresAt = &exp
			}
		}
		out = append(out, dc)
	}
	return out, nil
}

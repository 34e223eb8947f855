package providerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/driftforge/keyrotate/infrastructure/httputil"
)

const maxProfileBodyBytes = 1 << 20

// Profile is the subset of the provider's profile response sync uses to
// enrich a newly-discovered KeyRecord.
type Profile struct {
	AccountUUID  string `json:"uuid"`
	AccountEmail string `json:"email"`
}

// FetchProfile looks up account metadata for accessToken. Any failure is
// returned as an error for the caller to treat as non-fatal — a profile
// miss never blocks a sync.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.http.BaseURL()+"/profile", nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req, accessToken)
	if err != nil {
		return Profile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Profile{}, fmt.Errorf("profile lookup returned status %d", resp.StatusCode)
	}

	body, err := httputil.ReadAllStrict(resp.Body, maxProfileBodyBytes)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

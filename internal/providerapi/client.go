package providerapi

import (
	"github.com/driftforge/keyrotate/infrastructure/httputil"
)

// Client is the thin domain wrapper around infrastructure/httputil's
// transport-level ProviderClient: refresh, probe, and profile lookup all
// share one instance so they present identical headers to the provider.
type Client struct {
	http *httputil.ProviderClient
}

// NewClient adapts an already-built ProviderClient.
func NewClient(hc *httputil.ProviderClient) *Client {
	return &Client{http: hc}
}

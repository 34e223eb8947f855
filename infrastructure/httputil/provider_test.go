package httputil

import (
	"context"
	"net/http"
	"testing"

	"github.com/driftforge/keyrotate/infrastructure/ratelimit"
	"github.com/driftforge/keyrotate/infrastructure/testutil"
)

func TestProviderClientAppliesHeaders(t *testing.T) {
	var gotAuth, gotBeta, gotUA string
	srv := testutil.NewHTTPTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBeta = r.Header.Get("anthropic-beta")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewProviderClient(ProviderClientConfig{
		BaseURL:    srv.URL,
		BetaHeader: "oauth-2025-04-20",
		RateLimit:  ratelimit.RateLimitConfig{RequestsPerSecond: 100, Burst: 10},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/usage", nil)
	resp, err := client.Do(context.Background(), req, "super-secret-token")
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if gotAuth != "Bearer super-secret-token" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotBeta != "oauth-2025-04-20" {
		t.Fatalf("expected beta header, got %q", gotBeta)
	}
	if gotUA == "" {
		t.Fatalf("expected non-empty user agent")
	}
}

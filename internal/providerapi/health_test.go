package providerapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/driftforge/keyrotate/infrastructure/httputil"
	"github.com/driftforge/keyrotate/infrastructure/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := testutil.NewHTTPTestServer(t, handler)
	hc, err := httputil.NewProviderClient(httputil.ProviderClientConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewProviderClient: %v", err)
	}
	return NewClient(hc), srv
}

func TestProbeUnauthorized(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer srv.Close()

	result := c.Probe(context.Background(), "tok", MetricPaths{})
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.Error != "unauthorized" {
		t.Fatalf("expected unauthorized, got %q", result.Error)
	}
}

func TestProbeNon2xx(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	result := c.Probe(context.Background(), "tok", MetricPaths{})
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.Error != "http_500" {
		t.Fatalf("expected http_500, got %q", result.Error)
	}
}

func TestProbeSuccessParsesUsage(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"five_hour":{"utilization":30},"seven_day":{"utilization":10}}`))
	})
	defer srv.Close()

	result := c.Probe(context.Background(), "tok", MetricPaths{})
	if !result.Valid {
		t.Fatalf("expected valid result, got error %q", result.Error)
	}
	if result.Usage.FiveHour != 30 {
		t.Fatalf("expected five_hour=30, got %v", result.Usage.FiveHour)
	}
	if result.Usage.SevenDay != 10 {
		t.Fatalf("expected seven_day=10, got %v", result.Usage.SevenDay)
	}
	if result.Usage.SevenDaySonnet != 0 {
		t.Fatalf("expected seven_day_sonnet defaulted to 0, got %v", result.Usage.SevenDaySonnet)
	}
}

func TestProbeJSONPathOverride(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metrics":{"five_hour_pct":42}}`))
	})
	defer srv.Close()

	result := c.Probe(context.Background(), "tok", MetricPaths{FiveHour: "$.metrics.five_hour_pct"})
	if !result.Valid {
		t.Fatalf("expected valid result, got error %q", result.Error)
	}
	if result.Usage.FiveHour != 42 {
		t.Fatalf("expected five_hour=42 via override path, got %v", result.Usage.FiveHour)
	}
}

func TestProbeSendsBearerAuthorizationHeader(t *testing.T) {
	var sawAuth string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	c.Probe(context.Background(), "secret-token", MetricPaths{})
	if sawAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer header to reach server, got %q", sawAuth)
	}
}

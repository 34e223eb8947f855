package httputil

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftforge/keyrotate/infrastructure/ratelimit"
	"github.com/driftforge/keyrotate/pkg/version"
)

// ProviderClientConfig configures a ProviderClient. One instance is shared
// by the health prober, refresh client, and profile lookup so that all three
// callers build identical headers against the same base URL.
type ProviderClientConfig struct {
	BaseURL     string
	BetaHeader  string
	Timeout     time.Duration
	RateLimit   ratelimit.RateLimitConfig
	HTTPClient  *http.Client
	DebugLogger *zap.SugaredLogger
}

// ProviderClient wraps an http.Client with the header construction, request
// throttling, and debug logging shared by every outbound call this engine
// makes against the provider's OAuth and usage APIs.
type ProviderClient struct {
	baseURL    string
	betaHeader string
	client     *http.Client
	limiter    *ratelimit.RateLimiter
	log        *zap.SugaredLogger
}

// NewProviderClient builds a ProviderClient from cfg, normalizing the base
// URL and applying client timeout defaults.
func NewProviderClient(cfg ProviderClientConfig) (*ProviderClient, error) {
	defaults := DefaultClientDefaults()
	// The provider base URL is operator-configured (pkg/config defaults it
	// to the real https endpoint); tests point this at an httptest.Server,
	// so this layer normalizes the URL without forcing https.
	defaults.RequireHTTPS = false
	client, baseURL, err := NewClientWithBaseURL(ClientConfig{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
	}, defaults)
	if err != nil {
		return nil, err
	}

	log := cfg.DebugLogger
	if log == nil {
		noop, _ := zap.NewDevelopment()
		log = noop.Sugar()
	}

	return &ProviderClient{
		baseURL:    baseURL,
		betaHeader: cfg.BetaHeader,
		client:     client,
		limiter:    ratelimit.New(cfg.RateLimit),
		log:        log,
	}, nil
}

// BaseURL returns the normalized provider base URL.
func (c *ProviderClient) BaseURL() string {
	return c.baseURL
}

// Do sends req after waiting on the per-base-URL rate limiter, attaching the
// standard headers (Authorization, anthropic-beta, User-Agent,
// Content-Type), and logging method/path/status/latency/correlation-id at
// debug level. It never logs the Authorization header value.
func (c *ProviderClient) Do(ctx context.Context, req *http.Request, accessToken string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	correlationID := uuid.NewString()
	c.applyHeaders(req, accessToken, correlationID)

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		c.log.Debugw("provider request failed",
			"method", req.Method, "path", req.URL.Path,
			"correlation_id", correlationID, "latency_ms", latency.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	c.log.Debugw("provider request",
		"method", req.Method, "path", req.URL.Path, "status", resp.StatusCode,
		"correlation_id", correlationID, "latency_ms", latency.Milliseconds(),
	)
	return resp, nil
}

func (c *ProviderClient) applyHeaders(req *http.Request, accessToken, correlationID string) {
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if c.betaHeader != "" {
		req.Header.Set("anthropic-beta", c.betaHeader)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Correlation-Id", correlationID)
}

package httputil

import (
	"fmt"
	"net/http"
	"time"
)

// ClientConfig holds configuration shared across the engine's three outbound
// callers: the usage prober, the refresh client, and the profile lookup.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	HTTPClient   *http.Client
	MaxBodyBytes int64
}

// ClientDefaults holds default values applied when ClientConfig leaves a
// field zero.
type ClientDefaults struct {
	Timeout          time.Duration
	MaxBodyBytes     int64
	NormalizeBaseURL bool
	RequireHTTPS     bool
}

// DefaultClientDefaults returns standard default values.
func DefaultClientDefaults() ClientDefaults {
	return ClientDefaults{
		Timeout:          15 * time.Second,
		MaxBodyBytes:     1 << 20, // 1MiB
		NormalizeBaseURL: true,
		RequireHTTPS:     true,
	}
}

// NewClient creates an HTTP client with timeout defaults applied.
func NewClient(cfg ClientConfig, defaults ClientDefaults) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaults.Timeout
	}
	forceTimeout := cfg.Timeout != 0
	return CopyHTTPClientWithTimeout(cfg.HTTPClient, timeout, forceTimeout)
}

// NewClientWithBaseURL creates a client plus its normalized base URL.
func NewClientWithBaseURL(cfg ClientConfig, defaults ClientDefaults) (*http.Client, string, error) {
	normalizedURL := cfg.BaseURL
	if defaults.NormalizeBaseURL {
		normalized, _, err := NormalizeBaseURL(cfg.BaseURL, BaseURLOptions{RequireHTTPS: defaults.RequireHTTPS})
		if err != nil {
			return nil, "", fmt.Errorf("normalize base URL: %w", err)
		}
		normalizedURL = normalized
	}

	client := NewClient(ClientConfig{
		BaseURL:    normalizedURL,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
	}, defaults)

	return client, normalizedURL, nil
}

// ResolveMaxBodyBytes returns the effective max body size from config and defaults.
func ResolveMaxBodyBytes(cfg int64, defaultBytes int64) int64 {
	if cfg <= 0 {
		return defaultBytes
	}
	return cfg
}

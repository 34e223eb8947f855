package providerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/driftforge/keyrotate/infrastructure/httputil"
	"github.com/driftforge/keyrotate/infrastructure/resilience"
)

const maxRefreshBodyBytes = 1 << 20

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id,omitempty"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type oauthErrorBody struct {
	Error string `json:"error"`
}

// Refresh exchanges refreshToken for a new token pair at POST {base}/oauth/token.
// Transient failures (network errors, non-200/400 statuses, unparseable error
// bodies) are retried with exponential backoff through a circuit breaker;
// InvalidGrant is a terminal classification and is never retried.
func (c *Client) Refresh(ctx context.Context, refreshToken, clientID string, breaker *resilience.CircuitBreaker) RefreshOutcome {
	var outcome RefreshOutcome

	err := breaker.Execute(ctx, func() error {
		result := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
			o, retryable := c.doRefresh(ctx, refreshToken, clientID)
			outcome = o
			if retryable {
				return fmt.Errorf("transient refresh failure")
			}
			return nil
		})
		return result
	})

	if err != nil && outcome == nil {
		outcome = Transient{Err: err}
	}
	return outcome
}

// doRefresh performs a single refresh attempt. The second return value is
// true when the failure is transient and worth retrying.
func (c *Client) doRefresh(ctx context.Context, refreshToken, clientID string) (RefreshOutcome, bool) {
	payload, err := json.Marshal(refreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
		ClientID:     clientID,
	})
	if err != nil {
		return Transient{Err: err}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.http.BaseURL()+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return Transient{Err: err}, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req, "")
	if err != nil {
		return Transient{Err: err}, true
	}
	defer resp.Body.Close()

	body, err := httputil.ReadAllStrict(resp.Body, maxRefreshBodyBytes)
	if err != nil {
		return Transient{Err: err}, true
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var parsed refreshResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return Transient{Err: err}, true
		}
		return Refreshed{
			AccessToken:  parsed.AccessToken,
			RefreshToken: parsed.RefreshToken,
			ExpiresAt:    time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second).UnixMilli(),
		}, false
	case http.StatusBadRequest:
		var errBody oauthErrorBody
		if err := json.Unmarshal(body, &errBody); err != nil {
			return Transient{Err: err}, true
		}
		if errBody.Error == "invalid_grant" {
			return InvalidGrant{}, false
		}
		return Transient{Err: fmt.Errorf("oauth error: %s", errBody.Error)}, true
	default:
		return Transient{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}, true
	}
}

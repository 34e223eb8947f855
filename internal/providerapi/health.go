package providerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	"github.com/tidwall/gjson"

	"github.com/driftforge/keyrotate/infrastructure/httputil"
)

const maxUsageBodyBytes = 1 << 20

// MetricPaths overrides the default gjson field lookups with JSONPath
// expressions, for provider deployments whose usage response nests fields
// differently. An empty entry leaves the corresponding metric on the
// default gjson path.
type MetricPaths struct {
	FiveHour       string
	SevenDay       string
	SevenDaySonnet string
}

// Probe issues GET {base}/usage for accessToken and classifies the result
// per the health-prober contract: 401 is unauthorized (invalid forever),
// other non-2xx is a named transient error, 2xx is parsed usage, and a
// transport/parse failure is a transient error carrying its message.
func (c *Client) Probe(ctx context.Context, accessToken string, paths MetricPaths) ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.http.BaseURL()+"/usage", nil)
	if err != nil {
		return ProbeResult{Valid: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req, accessToken)
	if err != nil {
		return ProbeResult{Valid: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ProbeResult{Valid: false, Error: "unauthorized"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ProbeResult{Valid: false, Error: fmt.Sprintf("http_%d", resp.StatusCode)}
	}

	body, err := httputil.ReadAllStrict(resp.Body, maxUsageBodyBytes)
	if err != nil {
		return ProbeResult{Valid: false, Error: err.Error()}
	}

	usage, err := extractUsage(body, paths)
	if err != nil {
		return ProbeResult{Valid: false, Error: err.Error()}
	}
	return ProbeResult{Valid: true, Usage: usage}
}

func extractUsage(body []byte, paths MetricPaths) (Usage, error) {
	var generic interface{}
	needsGeneric := paths.FiveHour != "" || paths.SevenDay != "" || paths.SevenDaySonnet != ""
	if needsGeneric {
		if err := json.Unmarshal(body, &generic); err != nil {
			return Usage{}, fmt.Errorf("parse usage body: %w", err)
		}
	} else if !gjson.ValidBytes(body) {
		return Usage{}, fmt.Errorf("parse usage body: invalid JSON")
	}
	return Usage{
		FiveHour:       extractMetric(body, generic, "five_hour.utilization", paths.FiveHour),
		SevenDay:       extractMetric(body, generic, "seven_day.utilization", paths.SevenDay),
		SevenDaySonnet: extractMetric(body, generic, "seven_day_sonnet.utilization", paths.SevenDaySonnet),
	}, nil
}

// extractMetric uses gjson against the default field path (fast, no
// expression parsing), or evaluates a JSONPath+gval expression against the
// already-decoded generic document when the caller configured an override
// for this metric. Any miss defaults to 0.
func extractMetric(body []byte, generic interface{}, defaultPath, overridePath string) float64 {
	if overridePath == "" {
		result := gjson.GetBytes(body, defaultPath)
		if !result.Exists() {
			return 0
		}
		return result.Float()
	}

	eval, err := jsonpath.New(overridePath)
	if err != nil {
		return 0
	}
	result, err := eval(context.Background(), generic)
	if err != nil {
		return 0
	}
	switch n := result.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

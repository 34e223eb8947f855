// Package providerapi talks to the provider's OAuth and usage endpoints: a
// refresh client producing a distinguishable three-outcome sum type, and a
// health prober classifying responses into valid/invalid/transient. It
// defines its own usage/outcome types rather than importing internal/keyring;
// its callers (internal/monitor, internal/credsource) map between the two.
package providerapi

// RefreshOutcome is a distinguishable three-way result of a token refresh.
// Callers MUST check InvalidGrant before Refreshed: a truthiness check on a
// zero-valued Refreshed would otherwise misclassify InvalidGrant as success.
type RefreshOutcome interface {
	isRefreshOutcome()
}

// Refreshed carries the new token triple on success.
type Refreshed struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // epoch ms
}

func (Refreshed) isRefreshOutcome() {}

// InvalidGrant is the terminal signal that the refresh token has been
// revoked: HTTP 400 with a JSON body whose error field is "invalid_grant".
type InvalidGrant struct{}

func (InvalidGrant) isRefreshOutcome() {}

// Transient covers every other failure: non-200/400 status, network error,
// or a malformed error body. Retried on the next tick; never changes status.
type Transient struct {
	Err error
}

func (Transient) isRefreshOutcome() {}

// Usage holds the three provider-reported utilization percentages.
type Usage struct {
	FiveHour       float64
	SevenDay       float64
	SevenDaySonnet float64
}

// Max returns the largest of the three metrics.
func (u Usage) Max() float64 {
	m := u.FiveHour
	if u.SevenDay > m {
		m = u.SevenDay
	}
	if u.SevenDaySonnet > m {
		m = u.SevenDaySonnet
	}
	return m
}

// ProbeResult is the outcome of one health-check call.
type ProbeResult struct {
	Valid bool
	Usage Usage // only meaningful when Valid
	Error string
}

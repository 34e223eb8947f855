package engine

import (
	"fmt"
	"sort"

	"github.com/driftforge/keyrotate/internal/keyring"
	"github.com/driftforge/keyrotate/pkg/logger"
)

// Envelope is the JSON object the hook writes to stdout. continue is
// always true; suppressOutput is true whenever systemMessage would be
// empty, or when the invocation is a spawned child session.
type Envelope struct {
	Continue       bool    `json:"continue"`
	SuppressOutput bool    `json:"suppressOutput"`
	SystemMessage  *string `json:"systemMessage,omitempty"`
}

// SpawnedEnvelope is the fixed response returned without touching the
// keyring when the host signals this invocation is a spawned child session.
func SpawnedEnvelope() Envelope {
	return Envelope{Continue: true, SuppressOutput: true}
}

// BuildEnvelope summarizes kr's current health into the hook's response.
// systemMessage is populated only when more than one distinct account has a
// recorded usage sample (last_usage); accounts are deduplicated by account_uuid,
// falling back to a fingerprint of (seven_day, seven_day_sonnet) when the
// uuid is unknown. That fallback can mis-merge two distinct accounts whose
// 7-day windows coincidentally match; this is a known, preserved limitation
// and BuildEnvelope logs a diagnostic whenever the fallback path is used.
func BuildEnvelope(kr *keyring.Keyring, log *logger.Logger) Envelope {
	type accountPeak struct {
		key  string
		peak float64
	}

	seen := make(map[string]*accountPeak)
	usedFallback := false

	for _, rec := range kr.Keys {
		if rec.LastUsage == nil {
			continue
		}
		dedupKey, viaFallback := accountDedupKey(rec)
		if viaFallback {
			usedFallback = true
		}
		if existing, ok := seen[dedupKey]; ok {
			if rec.LastUsage.Max() > existing.peak {
				existing.peak = rec.LastUsage.Max()
			}
			continue
		}
		seen[dedupKey] = &accountPeak{key: dedupKey, peak: rec.LastUsage.Max()}
	}

	if usedFallback && log != nil {
		log.WithField("accounts_responding", len(seen)).
			Warn("account dedup fell back to a usage fingerprint for at least one key; distinct accounts with matching 7-day windows would be undercounted")
	}

	if len(seen) <= 1 {
		return Envelope{Continue: true, SuppressOutput: true}
	}

	peaks := make([]float64, 0, len(seen))
	for _, a := range seen {
		peaks = append(peaks, a.peak)
	}
	sort.Float64s(peaks)
	overallPeak := peaks[len(peaks)-1]

	msg := fmt.Sprintf("%d accounts active, peak usage %.0f%%", len(seen), overallPeak)
	return Envelope{Continue: true, SuppressOutput: false, SystemMessage: &msg}
}

// accountDedupKey returns the dedup key for rec and whether it was built
// from the fingerprint fallback rather than account_uuid.
func accountDedupKey(rec *keyring.KeyRecord) (key string, viaFallback bool) {
	if rec.AccountUUID != nil && *rec.AccountUUID != "" {
		return "uuid:" + *rec.AccountUUID, false
	}
	return fmt.Sprintf("fp:%.2f:%.2f", rec.LastUsage.SevenDay, rec.LastUsage.SevenDaySonnet), true
}

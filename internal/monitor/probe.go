package monitor

import (
	"context"
	"sync"

	"github.com/driftforge/keyrotate/internal/keyring"
	"github.com/driftforge/keyrotate/internal/providerapi"
)

// probeAll runs a health probe for every non-invalid, non-expired key in
// kr concurrently, joining on ctx's deadline (per-tick probe fan-out is
// unordered; only the joined set matters) and classifying each result into
// the KeyRecord per §4.4.
func (m *Monitor) probeAll(ctx context.Context, kr *keyring.Keyring, now int64) {
	type target struct {
		id  string
		rec *keyring.KeyRecord
	}
	var targets []target
	for id, rec := range kr.Keys {
		if rec.Status == keyring.StatusInvalid || rec.Status == keyring.StatusExpired {
			continue
		}
		targets = append(targets, target{id: id, rec: rec})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, t := range targets {
		wg.Add(1)
		go func(id string, rec *keyring.KeyRecord) {
			defer wg.Done()
			result := m.provider.Probe(ctx, rec.AccessToken, m.cfg.MetricPaths)

			mu.Lock()
			defer mu.Unlock()
			m.applyProbeResult(kr, id, rec, result, now)
		}(t.id, t.rec)
	}
	wg.Wait()
}

func (m *Monitor) applyProbeResult(kr *keyring.Keyring, id string, rec *keyring.KeyRecord, result providerapi.ProbeResult, now int64) {
	rec.LastHealthCheck = keyring.Int64Ptr(now)

	if m.metrics != nil {
		outcome := "valid"
		if !result.Valid {
			outcome = result.Error
		}
		m.metrics.ProbesTotal.WithLabelValues(prefixOf(id), outcome).Inc()
	}

	if !result.Valid {
		if result.Error == "unauthorized" {
			rec.Status = keyring.StatusInvalid
			kr.AppendEvent(keyring.RotationEvent{
				Timestamp: now,
				Event:     keyring.EventKeyRemoved,
				KeyID:     keyring.StringPtr(id),
				Reason:    "unauthorized",
			})
		}
		// Other non-2xx and transport/parse errors are transient: no status change.
		return
	}

	rec.LastUsage = &keyring.Usage{
		FiveHour:       result.Usage.FiveHour,
		SevenDay:       result.Usage.SevenDay,
		SevenDaySonnet: result.Usage.SevenDaySonnet,
		CheckedAt:      now,
	}

	if result.Usage.Max() >= keyring.ExhaustedThreshold {
		if rec.Status != keyring.StatusExhausted {
			kr.AppendEvent(keyring.RotationEvent{
				Timestamp: now,
				Event:     keyring.EventKeyExhausted,
				KeyID:     keyring.StringPtr(id),
			})
		}
		rec.Status = keyring.StatusExhausted
	} else {
		rec.Status = keyring.StatusActive
	}
}

func prefixOf(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Package selector implements the rotation policy: a pure function of a
// keyring snapshot that decides which credential should be active. It has
// no side effects and no dependency beyond internal/keyring; persistence
// and event logging are the caller's responsibility.
package selector

import (
	"sort"

	"github.com/driftforge/keyrotate/internal/keyring"
)

// candidate is a usable key together with its effective (possibly
// freshness-gated) usage for this computation only.
type candidate struct {
	id         string
	rec        *keyring.KeyRecord
	usage      *keyring.Usage // nil means effectively stale/unknown
	insertSeq  int
}

// Select runs the selector algorithm over kr and returns the key_id that
// should be active, or nil if no usable key exists. now is epoch ms,
// passed in rather than read internally so the function stays pure.
func Select(kr *keyring.Keyring, now int64) *string {
	candidates := buildCandidates(kr, now)
	if len(candidates) == 0 {
		return nil
	}

	var current *candidate
	if kr.ActiveKeyID != nil {
		for i := range candidates {
			if candidates[i].id == *kr.ActiveKeyID {
				current = &candidates[i]
				break
			}
		}
	}

	allAbove90 := computeAllAbove90(candidates)

	if allAbove90 {
		if current != nil && current.usage != nil && current.usage.Max() >= keyring.ExhaustedThreshold {
			return lowestUsageFallback(candidates, current)
		}
		return defaultResult(candidates, current)
	}

	if current != nil && current.usage != nil && current.usage.Max() >= keyring.HighUsageThreshold {
		if target := lowestUsageAmong(candidates, current.id); target != nil {
			return keyring.StringPtr(target.id)
		}
	}

	return defaultResult(candidates, current)
}

// buildCandidates computes valid_keys (step 1), applies the freshness gate
// (step 2), and filters to usable_keys (step 3). Keys are ordered by
// added_at, then key_id, and that position is kept as the insertion
// sequence used for tie-breaking.
func buildCandidates(kr *keyring.Keyring, now int64) []candidate {
	ids := make([]string, 0, len(kr.Keys))
	for id := range kr.Keys {
		ids = append(ids, id)
	}
	// added_at is the closest durable proxy for insertion order once a
	// keyring has round-tripped through JSON, where map order is lost.
	sort.Slice(ids, func(i, j int) bool {
		ri, rj := kr.Keys[ids[i]], kr.Keys[ids[j]]
		if ri.AddedAt != rj.AddedAt {
			return ri.AddedAt < rj.AddedAt
		}
		return ids[i] < ids[j]
	})

	out := make([]candidate, 0, len(ids))
	for i, id := range ids {
		rec := kr.Keys[id]
		if rec.Status != keyring.StatusActive && rec.Status != keyring.StatusExhausted {
			continue
		}

		var usage *keyring.Usage
		if rec.LastUsage != nil {
			u := *rec.LastUsage
			usage = &u
		}

		// Freshness gate: stale usage is treated as effectively unknown.
		if rec.LastHealthCheck != nil && now-*rec.LastHealthCheck > keyring.HealthDataMaxAge.Milliseconds() {
			usage = nil
		}

		if usage != nil && usage.Max() >= keyring.ExhaustedThreshold {
			continue
		}

		out = append(out, candidate{id: id, rec: rec, usage: usage, insertSeq: i})
	}
	return out
}

// computeAllAbove90 implements step 5: true iff every usable key with known
// usage has at least one metric >= HighUsageThreshold. A stale (nil) usage
// key forces false.
func computeAllAbove90(candidates []candidate) bool {
	for _, c := range candidates {
		if c.usage == nil {
			return false
		}
		if c.usage.Max() < keyring.HighUsageThreshold {
			return false
		}
	}
	return true
}

// lowestUsageAmong returns the usable candidate (excluding excludeID) with
// the lowest max usage, skipping stale-usage candidates, breaking ties on
// insertion order. Returns nil if none qualify.
func lowestUsageAmong(candidates []candidate, excludeID string) *candidate {
	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if c.id == excludeID || c.usage == nil {
			continue
		}
		if best == nil || c.usage.Max() < best.usage.Max() ||
			(c.usage.Max() == best.usage.Max() && c.insertSeq < best.insertSeq) {
			best = c
		}
	}
	return best
}

// lowestUsageFallback handles the all_above_90 + current-exhausted branch:
// rotate away from an exhausted current key to whichever usable key has the
// lowest usage (falling back to default ordering if none has known usage).
func lowestUsageFallback(candidates []candidate, current *candidate) *string {
	if target := lowestUsageAmong(candidates, current.id); target != nil {
		return keyring.StringPtr(target.id)
	}
	return defaultResult(candidates, current)
}

// BestAlternative returns the id of the usable key (other than excludeID)
// with the lowest effective usage, ignoring the high-usage/all-above-90
// branch logic entirely. Used by the daemon's predictive-rotation check
// (§4.6 step 7), which forces a switch ahead of the normal policy when
// usage velocity projects imminent exhaustion. Nil if no alternative
// qualifies.
func BestAlternative(kr *keyring.Keyring, now int64, excludeID string) *string {
	candidates := buildCandidates(kr, now)
	target := lowestUsageAmong(candidates, excludeID)
	if target == nil {
		return nil
	}
	return keyring.StringPtr(target.id)
}

// defaultResult implements step 7: current's id if still usable, else the
// first usable key's id (lowest, by the stable ordering buildCandidates
// used), else nil.
func defaultResult(candidates []candidate, current *candidate) *string {
	if current != nil {
		return keyring.StringPtr(current.id)
	}
	if len(candidates) == 0 {
		return nil
	}
	return keyring.StringPtr(candidates[0].id)
}

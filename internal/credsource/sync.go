package credsource

import (
	"context"

	"github.com/driftforge/keyrotate/infrastructure/resilience"
	"github.com/driftforge/keyrotate/internal/keyring"
	"github.com/driftforge/keyrotate/internal/providerapi"
)

// Syncer discovers credentials from every configured Source and reconciles
// them into a keyring, following spec's six-step sync contract.
type Syncer struct {
	Sources  []Source
	Provider *providerapi.Client
	ClientID string
	Breaker  *resilience.CircuitBreaker
}

// Sync runs one full discover -> merge -> refresh-expired -> prune-dead
// cycle against kr, mutating it in place. It never returns an error for a
// single failed source or a failed profile lookup — those are swallowed
// per spec ("non-fatal, never blocks a sync"); only a genuinely fatal
// condition (none at present) would surface here.
func (s *Syncer) Sync(ctx context.Context, kr *keyring.Keyring) {
	now := keyring.NowMillis()

	for _, src := range s.Sources {
		discovered, err := src.Discover(ctx)
		if err != nil {
			continue
		}
		for _, dc := range discovered {
			s.mergeOne(ctx, kr, dc, now)
		}
	}

	kr.MarkExpired(now)
	s.RefreshExpired(ctx, kr, now)
	pruneDead(kr)
}

// mergeOne applies steps 1-3 of the sync contract for a single discovered
// credential: compute its key_id, then insert or update in place.
func (s *Syncer) mergeOne(ctx context.Context, kr *keyring.Keyring, dc DiscoveredCredential, now int64) {
	id := keyring.ComputeKeyID(dc.AccessToken)

	if existing, ok := kr.Keys[id]; ok {
		existing.AccessToken = dc.AccessToken
		existing.RefreshToken = dc.RefreshToken
		existing.ExpiresAt = dc.ExpiresAt
		return
	}

	rec := &keyring.KeyRecord{
		KeyID:        id,
		AccessToken:  dc.AccessToken,
		RefreshToken: dc.RefreshToken,
		ExpiresAt:    dc.ExpiresAt,
		Status:       keyring.StatusActive,
		AddedAt:      now,
	}

	if s.Provider != nil {
		if profile, err := s.Provider.FetchProfile(ctx, dc.AccessToken); err == nil {
			if profile.AccountUUID != "" {
				rec.AccountUUID = keyring.StringPtr(profile.AccountUUID)
			}
			if profile.AccountEmail != "" {
				rec.AccountEmail = keyring.StringPtr(profile.AccountEmail)
			}
		}
	}

	kr.Keys[id] = rec
	kr.AppendEvent(keyring.RotationEvent{
		Timestamp: now,
		Event:     keyring.EventKeyAdded,
		KeyID:     keyring.StringPtr(id),
	})
}

// RefreshExpired implements step 4 of the sync contract (also reused
// verbatim by the daemon's per-tick refresh step, §4.6 step 3): every
// record past its expiry gets a refresh attempt, branching on the
// three-way RefreshOutcome with InvalidGrant checked before Refreshed per
// the engine-wide contract.
func (s *Syncer) RefreshExpired(ctx context.Context, kr *keyring.Keyring, now int64) {
	if s.Provider == nil {
		return
	}
	for id, rec := range kr.Keys {
		if rec.Status != keyring.StatusExpired {
			continue
		}
		if rec.ExpiresAt == nil || *rec.ExpiresAt >= now {
			continue
		}

		outcome := s.Provider.Refresh(ctx, rec.RefreshToken, s.ClientID, s.Breaker)

		switch o := outcome.(type) {
		case providerapi.InvalidGrant:
			rec.Status = keyring.StatusInvalid
			kr.AppendEvent(keyring.RotationEvent{
				Timestamp: now,
				Event:     keyring.EventKeyRemoved,
				KeyID:     keyring.StringPtr(id),
				Reason:    "refresh_token_invalid_grant",
			})
		case providerapi.Refreshed:
			rec.Status = keyring.StatusActive
			rec.AccessToken = o.AccessToken
			rec.RefreshToken = o.RefreshToken
			rec.ExpiresAt = keyring.Int64Ptr(o.ExpiresAt)
		default:
			// Transient: leave the record untouched, retried next cycle.
		}
	}
}

// pruneDead implements step 5: every invalid, non-active-selected key is
// removed, after first appending an account_auth_failed audit event.
func pruneDead(kr *keyring.Keyring) {
	now := keyring.NowMillis()

	deadIDs := make([]string, 0)
	for id, rec := range kr.Keys {
		if rec.Status != keyring.StatusInvalid {
			continue
		}
		if kr.ActiveKeyID != nil && *kr.ActiveKeyID == id {
			continue
		}
		deadIDs = append(deadIDs, id)
	}

	for _, id := range deadIDs {
		rec := kr.Keys[id]
		kr.AppendEvent(keyring.RotationEvent{
			Timestamp:    now,
			Event:        keyring.EventAccountAuthFailed,
			KeyID:        keyring.StringPtr(id),
			AccountEmail: rec.AccountEmail,
		})
		kr.PruneKey(id)
	}
}

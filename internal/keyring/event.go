package keyring

// AppendEvent prepends ev to the rotation log (newest-first) and trims to
// MaxLogEntries. It does not write the human log line; callers that hold a
// *Store do that via Store.LogHumanLine once persistence has succeeded
// (spec: "the human log line for key_switched is written only after
// persistence succeeds").
func (kr *Keyring) AppendEvent(ev RotationEvent) {
	kr.RotationLog = append([]RotationEvent{ev}, kr.RotationLog...)
	if len(kr.RotationLog) > MaxLogEntries {
		kr.RotationLog = kr.RotationLog[:MaxLogEntries]
	}
}

// PruneKey removes keyID from Keys and filters the rotation log of any
// entries referencing it, except account_auth_failed entries which are kept
// as historical record. This function does not check whether keyID is the
// currently-active key; callers are responsible for that check (sync never
// prunes active_key_id even if it is invalid).
func (kr *Keyring) PruneKey(keyID string) {
	delete(kr.Keys, keyID)

	filtered := kr.RotationLog[:0:0]
	for _, ev := range kr.RotationLog {
		if ev.KeyID != nil && *ev.KeyID == keyID && ev.Event != EventAccountAuthFailed {
			continue
		}
		filtered = append(filtered, ev)
	}
	kr.RotationLog = filtered
}

// MarkExpired transitions every key whose expires_at has passed from active
// or exhausted to expired, so the refresh step (RefreshExpired) has
// something to act on. invalid keys are left alone — refresh only ever
// applies to a key still believed usable.
func (kr *Keyring) MarkExpired(now int64) {
	for _, rec := range kr.Keys {
		if rec.Status == StatusInvalid || rec.Status == StatusExpired {
			continue
		}
		if rec.ExpiresAt != nil && *rec.ExpiresAt < now {
			rec.Status = StatusExpired
		}
	}
}

// StringPtr is a small helper for building RotationEvent/KeyRecord optional
// string fields inline.
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr is a small helper for building optional epoch-ms fields inline.
func Int64Ptr(v int64) *int64 {
	return &v
}

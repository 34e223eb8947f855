package selector

import (
	"testing"

	"github.com/driftforge/keyrotate/internal/keyring"
)

func keyWith(id string, usage keyring.Usage, checkedAgo int64, now int64) *keyring.KeyRecord {
	checkedAt := now - checkedAgo
	return &keyring.KeyRecord{
		KeyID:           id,
		Status:          keyring.StatusActive,
		LastUsage:       &usage,
		LastHealthCheck: keyring.Int64Ptr(checkedAt),
		AddedAt:         1,
	}
}

func newKeyring() *keyring.Keyring {
	return &keyring.Keyring{
		Version: keyring.CurrentVersion,
		Keys:    make(map[string]*keyring.KeyRecord),
	}
}

func TestSelectorTwoKeysHighVsLowRotatesToLow(t *testing.T) {
	now := keyring.NowMillis()
	kr := newKeyring()
	kr.Keys["A"] = keyWith("A", keyring.Usage{FiveHour: 95, SevenDay: 10, SevenDaySonnet: 10}, 0, now)
	kr.Keys["B"] = keyWith("B", keyring.Usage{FiveHour: 20, SevenDay: 20, SevenDaySonnet: 20}, 0, now)
	kr.ActiveKeyID = keyring.StringPtr("A")

	got := Select(kr, now)
	if got == nil || *got != "B" {
		t.Fatalf("expected B, got %v", got)
	}
}

func TestSelectorBothAt95StaysOnCurrent(t *testing.T) {
	now := keyring.NowMillis()
	kr := newKeyring()
	kr.Keys["A"] = keyWith("A", keyring.Usage{FiveHour: 95}, 0, now)
	kr.Keys["B"] = keyWith("B", keyring.Usage{FiveHour: 95}, 0, now)
	kr.ActiveKeyID = keyring.StringPtr("A")

	got := Select(kr, now)
	if got == nil || *got != "A" {
		t.Fatalf("expected A (all_above_90, none exhausted), got %v", got)
	}
}

func TestSelectorCurrentHits100RotatesToOther(t *testing.T) {
	now := keyring.NowMillis()
	kr := newKeyring()
	kr.Keys["A"] = keyWith("A", keyring.Usage{FiveHour: 100}, 0, now)
	kr.Keys["B"] = keyWith("B", keyring.Usage{FiveHour: 95}, 0, now)
	kr.ActiveKeyID = keyring.StringPtr("A")

	got := Select(kr, now)
	if got == nil || *got != "B" {
		t.Fatalf("expected B (A exhausted and excluded), got %v", got)
	}
}

func TestSelectorSingleKeyAt95StaysOnIt(t *testing.T) {
	now := keyring.NowMillis()
	kr := newKeyring()
	kr.Keys["A"] = keyWith("A", keyring.Usage{FiveHour: 95}, 0, now)
	kr.ActiveKeyID = keyring.StringPtr("A")

	got := Select(kr, now)
	if got == nil || *got != "A" {
		t.Fatalf("expected A (no alternative), got %v", got)
	}
}

func TestSelectorAllExhaustedReturnsNull(t *testing.T) {
	now := keyring.NowMillis()
	kr := newKeyring()
	kr.Keys["A"] = keyWith("A", keyring.Usage{FiveHour: 100}, 0, now)
	kr.Keys["B"] = keyWith("B", keyring.Usage{SevenDay: 100}, 0, now)
	kr.ActiveKeyID = keyring.StringPtr("A")

	got := Select(kr, now)
	if got != nil {
		t.Fatalf("expected null, got %v", *got)
	}
}

func TestSelectorStaleDataKeyCannotDriveSwitch(t *testing.T) {
	now := keyring.NowMillis()
	kr := newKeyring()
	kr.Keys["A"] = keyWith("A", keyring.Usage{FiveHour: 50, SevenDay: 50, SevenDaySonnet: 50}, 0, now)
	kr.Keys["B"] = keyWith("B", keyring.Usage{FiveHour: 10, SevenDay: 10, SevenDaySonnet: 10}, 20*60*1000, now)
	kr.ActiveKeyID = keyring.StringPtr("A")

	got := Select(kr, now)
	if got == nil || *got != "A" {
		t.Fatalf("expected A (B stale, A not above 90), got %v", got)
	}
}

func TestSelectorTotalityReturnsUsableOrNull(t *testing.T) {
	now := keyring.NowMillis()
	kr := newKeyring()
	kr.Keys["A"] = keyWith("A", keyring.Usage{FiveHour: 30}, 0, now)
	kr.Keys["dead"] = &keyring.KeyRecord{KeyID: "dead", Status: keyring.StatusInvalid}
	kr.ActiveKeyID = keyring.StringPtr("A")

	got := Select(kr, now)
	if got == nil || *got != "A" {
		t.Fatalf("expected A, invalid key must never be selectable, got %v", got)
	}
}

func TestSelectorNoActiveKeyFallsBackToFirstUsable(t *testing.T) {
	now := keyring.NowMillis()
	kr := newKeyring()
	kr.Keys["A"] = keyWith("A", keyring.Usage{FiveHour: 30}, 0, now)

	got := Select(kr, now)
	if got == nil || *got != "A" {
		t.Fatalf("expected A as the only usable key, got %v", got)
	}
}

func TestSelectorEmptyKeyringReturnsNull(t *testing.T) {
	now := keyring.NowMillis()
	got := Select(newKeyring(), now)
	if got != nil {
		t.Fatalf("expected null for empty keyring, got %v", *got)
	}
}

package engine

import (
	"testing"

	"github.com/driftforge/keyrotate/internal/keyring"
)

func usageOf(fiveHour, sevenDay, sevenDaySonnet float64) *keyring.Usage {
	return &keyring.Usage{FiveHour: fiveHour, SevenDay: sevenDay, SevenDaySonnet: sevenDaySonnet}
}

func TestBuildEnvelopeSuppressesWhenZeroOrOneAccountResponded(t *testing.T) {
	kr := keyring.Default()
	kr.Keys["a"] = &keyring.KeyRecord{KeyID: "a", LastUsage: usageOf(10, 20, 30), AccountUUID: keyring.StringPtr("u1")}

	env := BuildEnvelope(kr, nil)
	if !env.SuppressOutput || env.SystemMessage != nil {
		t.Fatalf("expected suppressed envelope with single account, got %+v", env)
	}
}

func TestBuildEnvelopeSummarizesMultipleDistinctAccounts(t *testing.T) {
	kr := keyring.Default()
	kr.Keys["a"] = &keyring.KeyRecord{KeyID: "a", LastUsage: usageOf(50, 40, 30), AccountUUID: keyring.StringPtr("u1")}
	kr.Keys["b"] = &keyring.KeyRecord{KeyID: "b", LastUsage: usageOf(90, 20, 10), AccountUUID: keyring.StringPtr("u2")}

	env := BuildEnvelope(kr, nil)
	if env.SuppressOutput || env.SystemMessage == nil {
		t.Fatalf("expected a system message for two distinct accounts, got %+v", env)
	}
	if *env.SystemMessage != "2 accounts active, peak usage 90%" {
		t.Fatalf("unexpected message: %s", *env.SystemMessage)
	}
}

func TestBuildEnvelopeDedupsByAccountUUID(t *testing.T) {
	kr := keyring.Default()
	kr.Keys["a"] = &keyring.KeyRecord{KeyID: "a", LastUsage: usageOf(50, 40, 30), AccountUUID: keyring.StringPtr("same-uuid")}
	kr.Keys["b"] = &keyring.KeyRecord{KeyID: "b", LastUsage: usageOf(95, 40, 30), AccountUUID: keyring.StringPtr("same-uuid")}

	env := BuildEnvelope(kr, nil)
	if !env.SuppressOutput {
		t.Fatalf("expected the two records to merge into one account, got %+v", env)
	}
}

func TestBuildEnvelopeFallsBackToFingerprintWhenUUIDMissing(t *testing.T) {
	kr := keyring.Default()
	kr.Keys["a"] = &keyring.KeyRecord{KeyID: "a", LastUsage: usageOf(50, 40, 30)}
	kr.Keys["b"] = &keyring.KeyRecord{KeyID: "b", LastUsage: usageOf(95, 60, 70)}

	env := BuildEnvelope(kr, nil)
	if env.SuppressOutput || env.SystemMessage == nil {
		t.Fatalf("expected distinct fingerprints to count as two accounts, got %+v", env)
	}
}

func TestBuildEnvelopeIgnoresKeysWithNoUsageYet(t *testing.T) {
	kr := keyring.Default()
	kr.Keys["a"] = &keyring.KeyRecord{KeyID: "a", LastUsage: usageOf(10, 20, 30), AccountUUID: keyring.StringPtr("u1")}
	kr.Keys["b"] = &keyring.KeyRecord{KeyID: "b"}

	env := BuildEnvelope(kr, nil)
	if !env.SuppressOutput {
		t.Fatalf("expected a key with no usage yet to not count toward the account total, got %+v", env)
	}
}

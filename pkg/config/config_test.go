package config

import "testing"

func TestNewFillsDefaults(t *testing.T) {
	cfg := New()
	if cfg.Provider.BaseURL == "" {
		t.Fatalf("expected default base URL")
	}
	if cfg.Daemon.AdminListenAddr == "" {
		t.Fatalf("expected default admin listen addr")
	}
}

func TestNormalizeDerivesPathsFromStatePath(t *testing.T) {
	cfg := &Config{}
	cfg.Keyring.StatePath = "/tmp/example/keyring.json"
	cfg.normalize()

	if cfg.Keyring.HumanLogPath != "/tmp/example/rotation.log" {
		t.Fatalf("unexpected human log path: %s", cfg.Keyring.HumanLogPath)
	}
	if cfg.Keyring.CredentialsPath != "/tmp/example/credentials.json" {
		t.Fatalf("unexpected credentials path: %s", cfg.Keyring.CredentialsPath)
	}
	if cfg.Lock.FilePath != "/tmp/example/keyring.json.lock" {
		t.Fatalf("unexpected lock path: %s", cfg.Lock.FilePath)
	}
}

package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/driftforge/keyrotate/internal/keyring"
	"github.com/driftforge/keyrotate/pkg/config"
	"github.com/driftforge/keyrotate/pkg/logger"
)

// sharedTestEngine builds exactly one Engine for the whole package test run.
// metrics.New registers collectors against the global Prometheus registry,
// so a second Engine built in the same test binary would panic on duplicate
// registration; every lifecycle test therefore shares one instance the way
// a real process only ever builds one.
var (
	sharedOnce   sync.Once
	sharedEngine *Engine
)

func sharedTestEngine(t *testing.T) *Engine {
	t.Helper()
	sharedOnce.Do(func() {
		dir, err := os.MkdirTemp("", "engine-test-*")
		if err != nil {
			t.Fatalf("MkdirTemp: %v", err)
		}
		cfg := config.New()
		cfg.Keyring.StatePath = filepath.Join(dir, "keyring.json")
		cfg.Keyring.HumanLogPath = filepath.Join(dir, "rotation.log")
		cfg.Keyring.CredentialsPath = filepath.Join(dir, "credentials.json")
		cfg.Lock.FilePath = filepath.Join(dir, "keyring.lock")

		e, err := New(cfg, logger.NewDefault("test"))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		sharedEngine = e
	})
	return sharedEngine
}

func TestRunHookSuppressesForSpawnedSession(t *testing.T) {
	os.Setenv("KEYROTATE_SPAWNED_SESSION", "true")
	t.Cleanup(func() { os.Unsetenv("KEYROTATE_SPAWNED_SESSION") })

	e := sharedTestEngine(t)
	os.Remove(e.Config.Keyring.CredentialsPath)

	env := e.RunHook(context.Background())
	if !env.SuppressOutput || env.SystemMessage != nil {
		t.Fatalf("expected a suppressed envelope for a spawned session, got %+v", env)
	}
	if _, err := os.Stat(e.Config.Keyring.CredentialsPath); !os.IsNotExist(err) {
		t.Fatalf("expected no credentials file to be written for a spawned session")
	}
}

func TestWriteActiveCredentialsWritesAtomically(t *testing.T) {
	e := sharedTestEngine(t)

	kr := e.Store.Load()
	id := "abcdef0123456789"
	kr.Keys[id] = &keyring.KeyRecord{
		KeyID:        id,
		AccessToken:  "tok-access",
		RefreshToken: "tok-refresh",
		Status:       keyring.StatusActive,
	}
	kr.ActiveKeyID = &id

	if err := e.writeActiveCredentials(kr); err != nil {
		t.Fatalf("writeActiveCredentials: %v", err)
	}

	data, err := os.ReadFile(e.Config.Keyring.CredentialsPath)
	if err != nil {
		t.Fatalf("read credentials file: %v", err)
	}
	var got activeCredential
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.AccessToken != "tok-access" || got.RefreshToken != "tok-refresh" {
		t.Fatalf("unexpected credential content: %+v", got)
	}
}

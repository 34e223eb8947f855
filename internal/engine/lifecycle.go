package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftforge/keyrotate/infrastructure/runtime"
	"github.com/driftforge/keyrotate/internal/keyring"
)

// RunHook is the one-shot entry point cmd/keyhook calls on every host
// invocation. A spawned child session does no work at all, per spec: the
// engine must never keep a host hook waiting on network or disk when it
// already knows the answer is "nothing to report".
//
// Unlike a daemon tick, a hook invocation may be the only process ever run
// against this keyring (the daemon is optional), so it also runs discovery
// and merge first -- otherwise a credential file dropped on disk between
// two hook invocations, with no keymonitor running, would never be picked
// up until one started.
func (e *Engine) RunHook(ctx context.Context) Envelope {
	if runtime.SpawnedSession() {
		return SpawnedEnvelope()
	}

	if err := e.runDiscovery(ctx); err != nil {
		e.Log.WithField("error", err.Error()).Warn("hook discovery failed, continuing with existing keyring")
	}

	if err := e.Monitor.Tick(ctx); err != nil {
		e.Log.WithField("error", err.Error()).Warn("hook tick failed, responding with stale state")
	}

	kr := e.Store.Load()

	if err := e.writeActiveCredentials(kr); err != nil {
		e.Log.WithField("error", err.Error()).Warn("failed to write active credentials file")
	}

	return BuildEnvelope(kr, e.Log)
}

// runDiscovery runs the syncer's discover -> merge -> refresh -> prune cycle
// once, under the same advisory lock a daemon tick uses, and persists the
// result. Grounded on Monitor's own rediscover job, which runs the identical
// sequence on its own cron schedule when a daemon is present.
func (e *Engine) runDiscovery(ctx context.Context) error {
	if err := e.Locker.Lock(ctx); err != nil {
		return err
	}
	defer e.Locker.Unlock()

	kr := e.Store.Load()
	e.Syncer.Sync(ctx, kr)
	return e.Store.Save(kr)
}

// activeCredential is the on-disk shape written for the external proxy to
// consume, mirroring the shape credsource.FileSource reads back in on the
// next invocation.
type activeCredential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
}

// writeActiveCredentials atomically (temp-then-rename, same filesystem)
// writes the currently active credential to cfg.Keyring.CredentialsPath, so
// the external proxy always reads a consistent file even if a concurrent
// invocation is mid-write.
func (e *Engine) writeActiveCredentials(kr *keyring.Keyring) error {
	path := e.Config.Keyring.CredentialsPath
	if path == "" || kr.ActiveKeyID == nil {
		return nil
	}
	rec, ok := kr.Keys[*kr.ActiveKeyID]
	if !ok {
		return nil
	}

	data, err := json.MarshalIndent(activeCredential{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresAt:    rec.ExpiresAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal active credential: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp credentials file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp credentials file: %w", err)
	}
	return nil
}

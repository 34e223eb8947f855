//go:build !windows

package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLockExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyring.lock")

	first := NewFileLock(path)
	if err := first.Lock(context.Background()); err != nil {
		t.Fatalf("first lock: %v", err)
	}

	second := NewFileLock(path)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := second.Lock(ctx); err == nil {
		t.Fatalf("expected second lock to block while first holds it")
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	if err := second.Lock(context.Background()); err != nil {
		t.Fatalf("second lock after release: %v", err)
	}
	_ = second.Unlock()
}

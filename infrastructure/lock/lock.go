// Package lock implements the advisory lock the one-shot hook and the
// daemon both take before a keyring read-modify-write cycle. The default
// backend is a flock-based file lock on the keyring's companion .lock path;
// an optional Redis-backed lock is available for daemons on separate hosts
// sharing one keyring over a network filesystem.
package lock

import "context"

// Locker is the advisory lock contract both backends satisfy.
type Locker interface {
	// Lock blocks until the lock is acquired or ctx is done.
	Lock(ctx context.Context) error
	// Unlock releases a held lock. Unlocking an unlocked Locker is a no-op.
	Unlock() error
}

// Backend selects which Locker implementation New constructs.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
)

// Config selects and parameterizes a lock backend.
type Config struct {
	Backend  Backend `env:"LOCK_BACKEND"`
	FilePath string  `env:"LOCK_FILE_PATH"`
	RedisURL string  `env:"LOCK_REDIS_URL"`
	RedisKey string  `env:"LOCK_REDIS_KEY"`
}

// New constructs the Locker selected by cfg.Backend, defaulting to the file
// backend when unset.
func New(cfg Config) (Locker, error) {
	switch cfg.Backend {
	case BackendRedis:
		return NewRedisLock(cfg.RedisURL, cfg.RedisKey)
	case BackendFile, "":
		return NewFileLock(cfg.FilePath), nil
	default:
		return NewFileLock(cfg.FilePath), nil
	}
}

package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const redisLockTTL = 30 * time.Second
const redisPollInterval = 100 * time.Millisecond

// RedisLock is a SET NX-based distributed lock for daemon deployments where
// multiple hosts share one keyring over a network filesystem, where flock
// semantics don't cross hosts.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
}

// NewRedisLock connects to redisURL and returns a RedisLock guarding key.
func NewRedisLock(redisURL, key string) (*RedisLock, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if key == "" {
		key = "keyrotate:keyring-lock"
	}
	return &RedisLock{
		client: redis.NewClient(opts),
		key:    key,
	}, nil
}

// Lock blocks, polling at redisPollInterval, until the key is acquired or
// ctx is done. The lock carries a TTL so a daemon that dies mid-cycle does
// not wedge the keyring forever.
func (l *RedisLock) Lock(ctx context.Context) error {
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, l.key, token, redisLockTTL).Result()
		if err != nil {
			return fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			l.token = token
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(redisPollInterval):
		}
	}
}

// Unlock deletes the lock key, but only if it still holds the token this
// instance set — a stale instance can't release a lock another holder
// reacquired after TTL expiry.
func (l *RedisLock) Unlock() error {
	if l.token == "" {
		return nil
	}
	ctx := context.Background()
	current, err := l.client.Get(ctx, l.key).Result()
	if err == nil && current == l.token {
		l.client.Del(ctx, l.key)
	}
	l.token = ""
	return nil
}

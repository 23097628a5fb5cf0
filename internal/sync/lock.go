package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/redis/go-redis/v9"

	"calldash/pkg/utils"
)

// Locker serializes sync runs per agent. The redis implementation also
// guards against two instances syncing the same agent at once.
type Locker interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return utils.AcquireLock(ctx, l.rdb, key, token, ttl)
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	return utils.ReleaseLock(ctx, l.rdb, key, token)
}

// LocalLocker is a single-process locker for tests and the simulator
// profile.
type LocalLocker struct {
	mu     stdsync.Mutex
	tokens map[string]string
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{tokens: make(map[string]string)}
}

func (l *LocalLocker) Acquire(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.tokens[key]; held {
		return false, nil
	}
	l.tokens[key] = token
	return true, nil
}

func (l *LocalLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tokens[key] == token {
		delete(l.tokens, key)
	}
	return nil
}

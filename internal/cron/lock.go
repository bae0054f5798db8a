package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/instance"
	pkgredis "github.com/angelmondragon/tableorder-backend/pkg/redis"
)

const defaultLockTTL = 4 * time.Minute

// Lock keeps concurrent replicas from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease. The stored value is "<instance>:<token>" so
// an operator can see which replica holds it.
type RedisLock struct {
	store  lockStore
	key    string
	ttl    time.Duration
	holder string

	mu    sync.Mutex
	token string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("redis client required for lock")
	case key == "":
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl, holder: instance.GetID()}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	token := l.holder + ":" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release deletes the key only while it still carries our token. An
// expired lease that another replica picked up is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""

	current, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, pkgredis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read lock %s: %w", l.key, err)
	case current != token:
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock %s: %w", l.key, err)
	}
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/invite-users/internal/invite"
	"github.com/ignite/invite-users/internal/pkg/distlock"
	"github.com/ignite/invite-users/internal/pkg/logger"
)

// KeyPrefix namespaces session keys in Redis.
const KeyPrefix = "invite:session:"

// RedisStore keeps sessions as JSON in Redis so every replica sees the same
// forms. Sessions are locked with distlock.RedisLock.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	wait    time.Duration
}

// NewRedisStore creates a store whose keys expire ttl after the last save.
// Locks expire after lockTTL so a crashed replica cannot wedge a session.
func NewRedisStore(client *redis.Client, ttl, lockTTL, wait time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL, wait: wait}
}

func key(id string) string { return KeyPrefix + id }

// Lock implements Store.
func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	lock := distlock.NewRedisLock(s.client, key(id), s.lockTTL)
	err := distlock.Wait(ctx, lock, s.wait, distlock.DefaultRetryInterval)
	if errors.Is(err, distlock.ErrNotAcquired) {
		return nil, invite.ErrSessionBusy
	}
	if err != nil {
		return nil, err
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("session unlock failed", "session", id, "lock", lock.Key(), "error", err)
		}
	}, nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, id string) (invite.State, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return invite.State{}, invite.ErrSessionNotFound
	}
	if err != nil {
		return invite.State{}, fmt.Errorf("load session: %w", err)
	}

	var state invite.State
	if err := json.Unmarshal(data, &state); err != nil {
		return invite.State{}, fmt.Errorf("decode session: %w", err)
	}
	return state, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, id string, state invite.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, key(id), data, s.ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, key(id)).Err()
}

package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)

	a := NewRedisLock(client, "invite:session:1", time.Minute)
	b := NewRedisLock(client, "invite:session:1", time.Minute)
	assert.Equal(t, "lock:invite:session:1", a.Key())

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Releasing a lock owned by someone else is a no-op.
	require.NoError(t, b.Release(ctx))
	assert.True(t, mr.Exists(a.Key()))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists(a.Key()))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_Expires(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)

	a := NewRedisLock(client, "k", time.Second)
	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	b := NewRedisLock(client, "k", time.Second)
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, time.Second, mr.TTL(b.Key()))

	// The expired holder cannot release the new owner's lock.
	require.NoError(t, a.Release(ctx))
	assert.True(t, mr.Exists(b.Key()))
}

func TestWait(t *testing.T) {
	ctx := context.Background()
	_, client := setupTestRedis(t)

	holder := NewRedisLock(client, "busy", time.Minute)
	ok, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	waiter := NewRedisLock(client, "busy", time.Minute)
	err = Wait(ctx, waiter, 50*time.Millisecond, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotAcquired)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = holder.Release(context.Background())
	}()
	require.NoError(t, Wait(ctx, waiter, 2*time.Second, 10*time.Millisecond))
}

func TestWait_ContextCancelled(t *testing.T) {
	_, client := setupTestRedis(t)
	holder := NewRedisLock(client, "busy", time.Minute)
	ok, err := holder.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = Wait(ctx, NewRedisLock(client, "busy", time.Minute), time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l := NewRedisLockerFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestRedisLocker_AcquireIsExclusive(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	ctx := context.Background()
	require.NoError(t, l.Ping(ctx))

	release, ok, err := l.Acquire(ctx, leaseKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(leaseKey))
	assert.Equal(t, time.Minute, mr.TTL(leaseKey))

	_, ok, err = l.Acquire(ctx, leaseKey, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "a held lease must not be granted twice")

	release()
	assert.False(t, mr.Exists(leaseKey))

	release2, ok, err := l.Acquire(ctx, leaseKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestRedisLocker_ReleaseKeepsSomeoneElsesLease(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	ctx := context.Background()

	stale, ok, err := l.Acquire(ctx, leaseKey, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = l.Acquire(ctx, leaseKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	holder, err := mr.Get(leaseKey)
	require.NoError(t, err)

	// the expired holder's release must not delete the new lease
	stale()
	current, err := mr.Get(leaseKey)
	require.NoError(t, err)
	assert.Equal(t, holder, current)
}

func TestScheduler_TickWithRedisLease(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	runner := &countingRunner{}
	s := NewScheduler(runner, l, time.Minute, time.Minute, discardLogger())

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, int32(1), runner.runs.Load())
	assert.False(t, mr.Exists(leaseKey), "lease released after the tick")

	require.NoError(t, mr.Set(leaseKey, "other-worker"))
	assert.ErrorIs(t, s.Tick(context.Background()), ErrLeaseHeld)
	assert.Equal(t, int32(1), runner.runs.Load())
}

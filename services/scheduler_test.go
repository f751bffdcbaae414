package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) RunOnce(ctx context.Context) (*RunReport, error) {
	r.runs.Add(1)
	return &RunReport{}, nil
}

type stubLocker struct {
	grant    bool
	released atomic.Int32
}

func (l *stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if !l.grant {
		return nil, false, nil
	}
	return func() { l.released.Add(1) }, true, nil
}

func TestScheduler_TickHoldsLease(t *testing.T) {
	runner := &countingRunner{}
	locker := &stubLocker{grant: true}
	s := NewScheduler(runner, locker, time.Minute, time.Minute, discardLogger())

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, int32(1), runner.runs.Load())
	assert.Equal(t, int32(1), locker.released.Load())
}

func TestScheduler_TickSkipsWhenLeaseHeld(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, &stubLocker{grant: false}, time.Minute, time.Minute, discardLogger())

	err := s.Tick(context.Background())
	assert.ErrorIs(t, err, ErrLeaseHeld)
	assert.Zero(t, runner.runs.Load())
}

func TestScheduler_StartStop(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, nil, time.Hour, 0, discardLogger(), RunOnStart())

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	assert.Eventually(t, func() bool { return runner.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
	s.Stop()
	assert.Equal(t, int32(1), runner.runs.Load())
}

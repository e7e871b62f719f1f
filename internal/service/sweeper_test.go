package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolafut/escola-api/config"
	"github.com/escolafut/escola-api/internal/observability/metrics"
)

// fakeSweeper returns the queued batch sizes in order, then zero.
type fakeSweeper struct {
	batches []int64
	err     error
	calls   int
}

func (f *fakeSweeper) DeleteExpired(_ context.Context, _ int) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func TestNewSessionSweeperService_Validation(t *testing.T) {
	_, err := NewSessionSweeperService(SessionSweeperServiceOptions{})
	assert.Error(t, err)

	_, err = NewSessionSweeperService(SessionSweeperServiceOptions{Sweeper: &fakeSweeper{}})
	assert.Error(t, err)
}

func TestSessionSweeperService_SweepDrainsBatches(t *testing.T) {
	sw := &fakeSweeper{batches: []int64{10, 10, 3}}
	rec := &metrics.Recorder{}
	svc, err := NewSessionSweeperService(SessionSweeperServiceOptions{
		Sweeper: sw,
		Config:  config.SweeperConfig{Interval: time.Minute, BatchSize: 10},
		Logger:  quietLogger,
		Metrics: rec,
	})
	require.NoError(t, err)

	n, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 23, n)
	assert.Equal(t, 3, sw.calls)

	swept := rec.Find("session.swept")
	require.Len(t, swept, 1)
	assert.InDelta(t, 23, swept[0].Value, 0)
}

func TestSessionSweeperService_SweepError(t *testing.T) {
	sw := &fakeSweeper{err: errors.New("db down")}
	rec := &metrics.Recorder{}
	svc, err := NewSessionSweeperService(SessionSweeperServiceOptions{
		Sweeper: sw,
		Config:  config.SweeperConfig{Interval: time.Minute, BatchSize: 10},
		Logger:  quietLogger,
		Metrics: rec,
	})
	require.NoError(t, err)

	_, err = svc.Sweep(context.Background())
	require.Error(t, err)
	sweeps := rec.Find("session.sweep")
	require.Len(t, sweeps, 1)
	assert.Equal(t, metrics.ResultError, sweeps[0].Tags["result"])
}

func TestSessionSweeperService_RunStopsOnCancel(t *testing.T) {
	sw := &fakeSweeper{}
	svc, err := NewSessionSweeperService(SessionSweeperServiceOptions{
		Sweeper: sw,
		Config:  config.SweeperConfig{Interval: 30 * time.Millisecond, BatchSize: 10},
		Logger:  quietLogger,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	time.Sleep(80 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.GreaterOrEqual(t, sw.calls, 2)
}

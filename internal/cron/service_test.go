package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	releases int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type funcJob struct {
	name string
	run  func(ctx context.Context) error
	runs int
}

func (j *funcJob) Name() string { return j.name }

func (j *funcJob) Run(ctx context.Context) error {
	j.runs++
	if j.run == nil {
		return nil
	}
	return j.run(ctx)
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	reg, err := NewRegistry(jobs...)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Logger:     logger.Nop(),
		Registry:   reg,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.NewRegistry()),
		Interval:   time.Hour,
		JobTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	return svc
}

func TestRunOnceRunsEveryJobAndReportsFailures(t *testing.T) {
	ok := &funcJob{name: "ok"}
	failing := &funcJob{name: "failing", run: func(context.Context) error { return errors.New("boom") }}
	panicky := &funcJob{name: "panicky", run: func(context.Context) error { panic("nil map") }}
	after := &funcJob{name: "after"}
	lock := &fakeLock{}

	result, err := newTestService(t, lock, ok, failing, panicky, after).RunOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 4, result.Ran)
	assert.Equal(t, []string{"failing", "panicky"}, result.Failed)
	assert.Equal(t, 1, after.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunOnceSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &funcJob{name: "never"}
	result, err := newTestService(t, &fakeLock{held: true}, job).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, job.runs)
}

func TestRunOnceSurfacesLockErrors(t *testing.T) {
	_, err := newTestService(t, &fakeLock{err: errors.New("redis down")}, &funcJob{name: "x"}).RunOnce(context.Background())
	assert.ErrorContains(t, err, "redis down")
}

func TestJobTimeoutCancelsSlowJob(t *testing.T) {
	slow := &funcJob{name: "slow", run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	result, err := newTestService(t, &fakeLock{}, slow).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"slow"}, result.Failed)
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := &funcJob{name: "once"}
	svc := newTestService(t, &fakeLock{}, job)

	cancel()
	require.NoError(t, svc.Run(ctx))
	// The first cycle starts before the loop checks ctx, but skips jobs once
	// ctx is already done.
	assert.Zero(t, job.runs)
}

func TestNewServiceValidates(t *testing.T) {
	reg, err := NewRegistry(&funcJob{name: "x"})
	require.NoError(t, err)

	_, err = NewService(ServiceParams{Registry: reg, Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.Nop(), Registry: reg})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.Nop(), Registry: &Registry{}, Lock: &fakeLock{}})
	assert.Error(t, err)
}

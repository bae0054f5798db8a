package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/metrics"
)

const (
	defaultInterval   = 5 * time.Minute
	defaultJobTimeout = time.Minute
)

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run. Zero uses one minute.
	JobTimeout time.Duration
}

// Service runs the registered maintenance jobs every Interval. A tick
// only does work on the replica holding the lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

// CycleResult summarizes one tick.
type CycleResult struct {
	Skipped bool
	Ran     int
	Failed  []string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	if params.Registry == nil || params.Registry.Len() == 0 {
		return nil, errors.New("at least one cron job required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = defaultJobTimeout
	}
	return s, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
// Cancellation is a clean stop.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "component", "cron")
	s.logg.Info(s.logg.WithField(ctx, "jobs", s.registry.Names()), "cron.started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron.cycle_failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs every job once if the lock can be taken. Job failures are
// reported in the result, not as an error.
func (s *Service) RunOnce(ctx context.Context) (CycleResult, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return CycleResult{}, fmt.Errorf("acquire cron lock: %w", err)
	}
	if !locked {
		s.logg.Debug(ctx, "cron.cycle_skipped")
		return CycleResult{Skipped: true}, nil
	}
	defer func() {
		// Release on a fresh context so shutdown does not strand the lock
		// until its TTL.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if relErr := s.lock.Release(relCtx); relErr != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", relErr)
		}
	}()

	var result CycleResult
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			break
		}
		result.Ran++
		if err := s.runJob(ctx, job); err != nil {
			result.Failed = append(result.Failed, job.Name())
		}
	}
	return result, nil
}

func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	jobCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cron job %s panicked: %v", name, rec)
		}
		elapsed := time.Since(start)
		logCtx := s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
		s.metrics.ObserveRun(name, elapsed, err)
		if err != nil {
			s.logg.Error(logCtx, "job failed", err)
			return
		}
		s.logg.Info(logCtx, "job completed")
	}()

	return job.Run(jobCtx)
}

package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/tableorder-backend/internal/sessions"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

const staleSessionBatch = 50

type staleSessionManager interface {
	StaleSessions(ctx context.Context, startedBefore time.Time, limit int) ([]models.TableSession, error)
	Close(ctx context.Context, input sessions.CloseInput) (*sessions.CloseSummary, error)
}

// StaleSessionJobParams configures NewStaleSessionJob.
type StaleSessionJobParams struct {
	Logger   *logger.Logger
	Sessions staleSessionManager
	MaxAge   time.Duration
}

// NewStaleSessionJob closes sessions left open longer than MaxAge. Closing
// goes through the session manager so dashboards see session_ended.
func NewStaleSessionJob(params StaleSessionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if params.MaxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive")
	}
	return &staleSessionJob{
		logg:     params.Logger,
		sessions: params.Sessions,
		maxAge:   params.MaxAge,
		now:      time.Now,
	}, nil
}

type staleSessionJob struct {
	logg     *logger.Logger
	sessions staleSessionManager
	maxAge   time.Duration
	now      func() time.Time
}

func (j *staleSessionJob) Name() string { return "stale_sessions" }

func (j *staleSessionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	stale, err := j.sessions.StaleSessions(ctx, cutoff, staleSessionBatch)
	if err != nil {
		return fmt.Errorf("list stale sessions: %w", err)
	}

	var (
		errs   error
		closed int
	)
	for _, session := range stale {
		_, err := j.sessions.Close(ctx, sessions.CloseInput{TableID: session.TableID, StoreID: session.StoreID})
		switch {
		case err == nil:
			closed++
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			// closed by staff between listing and closing
		default:
			errs = multierr.Append(errs, fmt.Errorf("close session %s: %w", session.ID, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":   cutoff,
		"found":    len(stale),
		"closed":   closed,
		"failures": len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "stale session sweep complete")
	return errs
}

type historyPurger interface {
	PurgeHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryRetentionJobParams configures NewHistoryRetentionJob.
type HistoryRetentionJobParams struct {
	Logger    *logger.Logger
	History   historyPurger
	Retention time.Duration
}

// NewHistoryRetentionJob deletes archived sessions older than Retention.
func NewHistoryRetentionJob(params HistoryRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history purger required")
	}
	if params.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	return &historyRetentionJob{
		logg:      params.Logger,
		history:   params.History,
		retention: params.Retention,
		now:       time.Now,
	}, nil
}

type historyRetentionJob struct {
	logg      *logger.Logger
	history   historyPurger
	retention time.Duration
	now       func() time.Time
}

func (j *historyRetentionJob) Name() string { return "history_retention" }

func (j *historyRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.history.PurgeHistory(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("history retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "history retention cleanup complete")
	return nil
}

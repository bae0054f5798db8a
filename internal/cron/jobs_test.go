package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tableorder-backend/internal/sessions"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

type stubSessionManager struct {
	stale    []models.TableSession
	cutoff   time.Time
	closeErr map[uuid.UUID]error
	closed   []uuid.UUID
}

func (s *stubSessionManager) StaleSessions(ctx context.Context, startedBefore time.Time, limit int) ([]models.TableSession, error) {
	s.cutoff = startedBefore
	return s.stale, nil
}

func (s *stubSessionManager) Close(ctx context.Context, input sessions.CloseInput) (*sessions.CloseSummary, error) {
	if err := s.closeErr[input.TableID]; err != nil {
		return nil, err
	}
	s.closed = append(s.closed, input.TableID)
	return &sessions.CloseSummary{TableID: input.TableID}, nil
}

type stubPurger struct {
	cutoff time.Time
	err    error
}

func (s *stubPurger) PurgeHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 3, s.err
}

func TestStaleSessionJobClosesAndAggregatesErrors(t *testing.T) {
	conflicted, failed, ok := uuid.New(), uuid.New(), uuid.New()
	manager := &stubSessionManager{
		stale: []models.TableSession{
			{ID: uuid.New(), TableID: ok, StoreID: uuid.New()},
			{ID: uuid.New(), TableID: conflicted, StoreID: uuid.New()},
			{ID: uuid.New(), TableID: failed, StoreID: uuid.New()},
		},
		closeErr: map[uuid.UUID]error{
			conflicted: pkgerrors.New(pkgerrors.CodeConflict, "session already closed"),
			failed:     errors.New("db down"),
		},
	}
	job, err := NewStaleSessionJob(StaleSessionJobParams{Logger: logger.Nop(), Sessions: manager, MaxAge: 12 * time.Hour})
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	job.(*staleSessionJob).now = func() time.Time { return now }

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Equal(t, []uuid.UUID{ok}, manager.closed)
	assert.Equal(t, now.Add(-12*time.Hour), manager.cutoff)
	assert.Equal(t, "stale_sessions", job.Name())
}

func TestStaleSessionJobRequiresMaxAge(t *testing.T) {
	_, err := NewStaleSessionJob(StaleSessionJobParams{Logger: logger.Nop(), Sessions: &stubSessionManager{}})
	require.Error(t, err)
}

func TestHistoryRetentionJob(t *testing.T) {
	purger := &stubPurger{}
	job, err := NewHistoryRetentionJob(HistoryRetentionJobParams{Logger: logger.Nop(), History: purger, Retention: 30 * 24 * time.Hour})
	require.NoError(t, err)

	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	job.(*historyRetentionJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), purger.cutoff)

	purger.err = errors.New("boom")
	require.Error(t, job.Run(context.Background()))
}

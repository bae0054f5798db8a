package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableorder-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/types"
)

type stubRepo struct {
	rows []SessionRow
	err  error
}

func (s stubRepo) ListClosedSessions(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]SessionRow, error) {
	return s.rows, s.err
}

func TestSalesSummaryAggregates(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc, err := NewService(stubRepo{rows: []SessionRow{
		{CompletedAt: day1, SessionTotal: 10000, OrderCount: 3},
		{CompletedAt: day1.Add(time.Hour), SessionTotal: 5000, OrderCount: 1},
		{CompletedAt: day2, SessionTotal: 7000, OrderCount: 2},
	}}, nil)
	require.NoError(t, err)

	summary, err := svc.SalesSummary(context.Background(), uuid.New(), day1.Add(-time.Hour), day2.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.SessionCount)
	assert.Equal(t, 6, summary.OrderCount)
	assert.EqualValues(t, 22000, summary.Revenue)
	assert.Equal(t, "3666.67", summary.AverageOrderValue.StringFixed(2))
	assert.Equal(t, "7333.33", summary.AverageSessionValue.StringFixed(2))
	require.Len(t, summary.Daily, 2)
	assert.Equal(t, "2026-03-01", summary.Daily[0].Date)
	assert.Equal(t, 2, summary.Daily[0].Sessions)
	assert.EqualValues(t, 7000, summary.Daily[1].Revenue)
}

func TestSalesSummaryEmptyRange(t *testing.T) {
	svc, err := NewService(stubRepo{}, time.UTC)
	require.NoError(t, err)

	now := time.Now()
	summary, err := svc.SalesSummary(context.Background(), uuid.New(), now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.True(t, summary.AverageOrderValue.IsZero())
	assert.Empty(t, summary.Daily)
}

func TestSalesSummaryValidation(t *testing.T) {
	svc, err := NewService(stubRepo{err: errors.New("down")}, nil)
	require.NoError(t, err)
	now := time.Now()

	_, err = svc.SalesSummary(context.Background(), uuid.New(), now, now.Add(-time.Hour))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.SalesSummary(context.Background(), uuid.New(), now.Add(-400*24*time.Hour), now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.SalesSummary(context.Background(), uuid.New(), now.Add(-time.Hour), now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestRepositoryFiltersByStoreAndRange(t *testing.T) {
	client := dbtest.Open(t)
	storeID := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	insert := func(store uuid.UUID, completed time.Time, total int64) {
		row := models.OrderHistory{
			ID:                uuid.New(),
			SessionID:         uuid.New(),
			TableID:           uuid.New(),
			StoreID:           store,
			TableNumber:       1,
			SessionStartedAt:  completed.Add(-time.Hour),
			CompletedAt:       completed,
			SessionTotal:      total,
			OrderCount:        1,
			ArchivedOrderData: types.ArchivedSession{SessionTotal: total},
		}
		require.NoError(t, client.DB().Create(&row).Error)
	}
	insert(storeID, at, 1000)
	insert(storeID, at.Add(48*time.Hour), 2000)
	insert(uuid.New(), at, 9999)

	rows, err := NewRepository(client.DB()).ListClosedSessions(context.Background(), storeID, at.Add(-time.Hour), at.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1000, rows[0].SessionTotal)
}

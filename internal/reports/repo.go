package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
)

// SessionRow is the slice of order_history a sales report needs.
type SessionRow struct {
	CompletedAt  time.Time
	SessionTotal int64
	OrderCount   int
}

type Repository interface {
	ListClosedSessions(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]SessionRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListClosedSessions(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]SessionRow, error) {
	var rows []SessionRow
	err := r.db.WithContext(ctx).
		Model(&models.OrderHistory{}).
		Select("completed_at, session_total, order_count").
		Where("store_id = ? AND completed_at >= ? AND completed_at < ?", storeID, from, to).
		Order("completed_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

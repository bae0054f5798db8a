package tables

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/pagination"
)

// Repository defines persistence for tables and their archived sessions.
type Repository interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Table, error)
	Create(ctx context.Context, table *models.Table) error
	FindByID(ctx context.Context, tableID uuid.UUID) (*models.Table, error)
	FindSessions(ctx context.Context, sessionIDs []uuid.UUID) ([]models.TableSession, error)
	CountOrdersBySession(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	ListHistory(ctx context.Context, tableID uuid.UUID, filter HistoryFilter, cursor *pagination.Cursor, limit int) ([]models.OrderHistory, error)
	CountHistory(ctx context.Context, tableID uuid.UUID, filter HistoryFilter) (int64, error)
	DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tables repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Table, error) {
	var tables []models.Table
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("table_number ASC").
		Find(&tables).Error
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *repository) Create(ctx context.Context, table *models.Table) error {
	return r.db.WithContext(ctx).Create(table).Error
}

func (r *repository) FindByID(ctx context.Context, tableID uuid.UUID) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).Where("id = ?", tableID).First(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *repository) FindSessions(ctx context.Context, sessionIDs []uuid.UUID) ([]models.TableSession, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var sessions []models.TableSession
	if err := r.db.WithContext(ctx).Where("id IN ?", sessionIDs).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) CountOrdersBySession(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		SessionID uuid.UUID
		Total     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("session_id, COUNT(*) AS total").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SessionID] = row.Total
	}
	return counts, nil
}

func (r *repository) historyScope(ctx context.Context, tableID uuid.UUID, filter HistoryFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.OrderHistory{}).
		Where("table_id = ?", tableID)
	if filter.From != nil {
		query = query.Where("completed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("completed_at < ?", *filter.To)
	}
	return query
}

// ListHistory pages archived sessions newest first, keyed on (completed_at, id).
func (r *repository) ListHistory(ctx context.Context, tableID uuid.UUID, filter HistoryFilter, cursor *pagination.Cursor, limit int) ([]models.OrderHistory, error) {
	query := r.historyScope(ctx, tableID, filter)
	if cursor != nil {
		query = query.Where("(completed_at < ?) OR (completed_at = ? AND id < ?)", cursor.At, cursor.At, cursor.ID)
	}
	var rows []models.OrderHistory
	err := query.
		Order("completed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountHistory(ctx context.Context, tableID uuid.UUID, filter HistoryFilter) (int64, error) {
	var total int64
	err := r.historyScope(ctx, tableID, filter).Count(&total).Error
	return total, err
}

func (r *repository) DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("completed_at < ?", cutoff).
		Delete(&models.OrderHistory{})
	return res.RowsAffected, res.Error
}

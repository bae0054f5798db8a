package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
)

// Repository defines persistence for tables, their sessions and archives.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error)
	FindTableByNumber(ctx context.Context, storeID uuid.UUID, number int) (*models.Table, error)
	LockTable(ctx context.Context, tableID uuid.UUID) (*models.Table, error)
	UpdateTablePasswordHash(ctx context.Context, tableID uuid.UUID, hash string) error
	SetCurrentSession(ctx context.Context, tableID uuid.UUID, sessionID *uuid.UUID) error
	LockSession(ctx context.Context, sessionID uuid.UUID) (*models.TableSession, error)
	FindActiveSessionByTable(ctx context.Context, tableID uuid.UUID) (*models.TableSession, error)
	CreateSession(ctx context.Context, session *models.TableSession) error
	DeactivateSession(ctx context.Context, sessionID uuid.UUID, endedAt time.Time) (bool, error)
	ListSessionOrders(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error)
	CreateHistory(ctx context.Context, history *models.OrderHistory) error
	ListStaleSessions(ctx context.Context, startedBefore time.Time, limit int) ([]models.TableSession, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sessions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", storeID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindTableByNumber(ctx context.Context, storeID uuid.UUID, number int) (*models.Table, error) {
	var table models.Table
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND table_number = ?", storeID, number).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// LockTable reads the table row with FOR UPDATE. SQLite ignores the clause;
// there the single writer connection gives the same serialization.
func (r *repository) LockTable(ctx context.Context, tableID uuid.UUID) (*models.Table, error) {
	var table models.Table
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", tableID).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *repository) UpdateTablePasswordHash(ctx context.Context, tableID uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Table{}).
		Where("id = ?", tableID).
		Update("password_hash", hash).Error
}

func (r *repository) SetCurrentSession(ctx context.Context, tableID uuid.UUID, sessionID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Table{}).
		Where("id = ?", tableID).
		Update("current_session_id", sessionID).Error
}

func (r *repository) LockSession(ctx context.Context, sessionID uuid.UUID) (*models.TableSession, error) {
	var session models.TableSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindActiveSessionByTable(ctx context.Context, tableID uuid.UUID) (*models.TableSession, error) {
	var session models.TableSession
	err := r.db.WithContext(ctx).
		Where("table_id = ? AND is_active = ?", tableID, true).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) CreateSession(ctx context.Context, session *models.TableSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// DeactivateSession flips an active session to closed. It reports false when
// the session was already inactive.
func (r *repository) DeactivateSession(ctx context.Context, sessionID uuid.UUID, endedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TableSession{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]any{
			"is_active": false,
			"ended_at":  endedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListSessionOrders(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CreateHistory(ctx context.Context, history *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *repository) ListStaleSessions(ctx context.Context, startedBefore time.Time, limit int) ([]models.TableSession, error) {
	var sessions []models.TableSession
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND started_at < ?", true, startedBefore).
		Order("started_at ASC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

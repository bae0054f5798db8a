package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockSession holds the session row until the surrounding tx ends so a
// concurrent close cannot archive around a half-written order.
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

func (r *repository) FindTable(ctx context.Context, tableID uuid.UUID) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).Where("id = ?", tableID).First(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *repository) FindMenus(ctx context.Context, menuIDs []uuid.UUID) ([]models.Menu, error) {
	if len(menuIDs) == 0 {
		return nil, nil
	}
	var menus []models.Menu
	if err := r.db.WithContext(ctx).Where("id IN ?", menuIDs).Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

// CreateOrder inserts the order and its items in one statement batch.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus only touches orders that are not completed, so a
// concurrent completion committed after our read is never overwritten.
func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", orderID, enums.OrderStatusCompleted).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteOrder removes items first so engines without FK cascades agree.
func (r *repository) DeleteOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", orderID).Delete(&models.Order{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
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

func (r *repository) SumSessionTotal(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("session_id = ?", sessionID).
		Scan(&total).Error
	return total, err
}

func (r *repository) ListActiveTables(ctx context.Context, storeID uuid.UUID, tableID *uuid.UUID) ([]models.Table, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ? AND current_session_id IS NOT NULL", storeID)
	if tableID != nil {
		query = query.Where("id = ?", *tableID)
	}
	var tables []models.Table
	if err := query.Order("table_number ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *repository) ListOrdersForSessions(ctx context.Context, sessionIDs []uuid.UUID, status *enums.OrderStatus) ([]models.Order, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("session_id IN ?", sessionIDs)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var orders []models.Order
	if err := query.Order("created_at ASC, id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

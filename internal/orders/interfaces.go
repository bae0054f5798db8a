package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockSession(ctx context.Context, sessionID uuid.UUID) (*models.TableSession, error)
	FindTable(ctx context.Context, tableID uuid.UUID) (*models.Table, error)
	FindMenus(ctx context.Context, menuIDs []uuid.UUID) ([]models.Menu, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// UpdateOrderStatus reports false when the order is missing or already terminal.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (bool, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListSessionOrders(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error)
	SumSessionTotal(ctx context.Context, sessionID uuid.UUID) (int64, error)
	ListActiveTables(ctx context.Context, storeID uuid.UUID, tableID *uuid.UUID) ([]models.Table, error)
	ListOrdersForSessions(ctx context.Context, sessionIDs []uuid.UUID, status *enums.OrderStatus) ([]models.Order, error)
}

package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

// ItemInput is one requested line of a new order.
type ItemInput struct {
	MenuID   uuid.UUID
	Quantity int
}

// CreateOrderInput comes from a table token; the ids are trusted claims.
type CreateOrderInput struct {
	StoreID   uuid.UUID
	TableID   uuid.UUID
	SessionID uuid.UUID
	Items     []ItemInput
}

// UpdateStatusInput changes one order on behalf of an admin store.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	StoreID uuid.UUID
	Status  enums.OrderStatus
}

// DeleteOrderInput removes one order on behalf of an admin store.
type DeleteOrderInput struct {
	OrderID uuid.UUID
	StoreID uuid.UUID
}

// BoardFilters narrow the admin live board.
type BoardFilters struct {
	Status  *enums.OrderStatus
	TableID *uuid.UUID
}

type OrderItemView struct {
	ID        uuid.UUID  `json:"id"`
	MenuID    *uuid.UUID `json:"menu_id"`
	MenuName  string     `json:"menu_name"`
	Quantity  int        `json:"quantity"`
	UnitPrice int64      `json:"unit_price"`
	Subtotal  int64      `json:"subtotal"`
}

type OrderView struct {
	ID          uuid.UUID         `json:"order_id"`
	TableID     uuid.UUID         `json:"table_id"`
	SessionID   uuid.UUID         `json:"session_id"`
	TotalAmount int64             `json:"total_amount"`
	Status      enums.OrderStatus `json:"status"`
	OrderTime   time.Time         `json:"order_time"`
	Items       []OrderItemView   `json:"items"`
}

// DeletedOrder identifies the order that was removed.
type DeletedOrder struct {
	OrderID uuid.UUID `json:"order_id"`
	TableID uuid.UUID `json:"table_id"`
}

// SessionOrders is the customer view of the current session.
type SessionOrders struct {
	SessionID   uuid.UUID   `json:"session_id"`
	Orders      []OrderView `json:"orders"`
	TotalAmount int64       `json:"total_session_amount"`
}

// TableBoard groups the live orders of one occupied table.
type TableBoard struct {
	TableID     uuid.UUID   `json:"table_id"`
	TableNumber int         `json:"table_number"`
	SessionID   uuid.UUID   `json:"session_id"`
	TotalAmount int64       `json:"total_amount"`
	OrderCount  int         `json:"order_count"`
	Orders      []OrderView `json:"orders"`
}

func toOrderView(order models.Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemView{
			ID:        item.ID,
			MenuID:    item.MenuID,
			MenuName:  item.MenuName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return OrderView{
		ID:          order.ID,
		TableID:     order.TableID,
		SessionID:   order.SessionID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		OrderTime:   order.CreatedAt,
		Items:       items,
	}
}

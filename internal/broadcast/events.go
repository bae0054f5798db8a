package broadcast

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

// Payload shapes pushed to dashboards. Field names are part of the wire
// contract with the admin frontend.

type OrderItemPayload struct {
	MenuID    *uuid.UUID `json:"menu_id"`
	MenuName  string     `json:"menu_name"`
	Quantity  int        `json:"quantity"`
	UnitPrice int64      `json:"unit_price"`
	Subtotal  int64      `json:"subtotal"`
}

type OrderCreated struct {
	OrderID     uuid.UUID          `json:"order_id"`
	TableID     uuid.UUID          `json:"table_id"`
	TableNumber int                `json:"table_number"`
	TotalAmount int64              `json:"total_amount"`
	Status      enums.OrderStatus  `json:"status"`
	OrderTime   time.Time          `json:"order_time"`
	Items       []OrderItemPayload `json:"items"`
}

type OrderUpdated struct {
	OrderID uuid.UUID         `json:"order_id"`
	TableID uuid.UUID         `json:"table_id"`
	Status  enums.OrderStatus `json:"status"`
}

type OrderDeleted struct {
	OrderID uuid.UUID `json:"order_id"`
	TableID uuid.UUID `json:"table_id"`
}

type SessionEnded struct {
	TableID     uuid.UUID `json:"table_id"`
	TableNumber int       `json:"table_number"`
	SessionID   uuid.UUID `json:"session_id"`
}

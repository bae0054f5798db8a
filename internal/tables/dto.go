package tables

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/types"
)

// CreateTableInput registers a new table for a store.
type CreateTableInput struct {
	StoreID     uuid.UUID
	TableNumber int
	Password    string
}

// HistoryFilter bounds completed_at; To is exclusive.
type HistoryFilter struct {
	From *time.Time
	To   *time.Time
}

type TableDTO struct {
	ID               uuid.UUID  `json:"table_id"`
	TableNumber      int        `json:"table_number"`
	CurrentSessionID *uuid.UUID `json:"current_session_id"`
	SessionStartedAt *time.Time `json:"session_started_at,omitempty"`
	ActiveOrderCount int64      `json:"active_order_count"`
	CreatedAt        time.Time  `json:"created_at"`
}

type HistoryDTO struct {
	ID               uuid.UUID             `json:"history_id"`
	SessionID        uuid.UUID             `json:"session_id"`
	TableID          uuid.UUID             `json:"table_id"`
	TableNumber      int                   `json:"table_number"`
	SessionStartedAt time.Time             `json:"session_started_at"`
	CompletedAt      time.Time             `json:"completed_at"`
	SessionTotal     int64                 `json:"session_total"`
	OrderCount       int                   `json:"order_count"`
	Orders           []types.ArchivedOrder `json:"orders"`
}

func historyFromModel(row models.OrderHistory) HistoryDTO {
	orders := row.ArchivedOrderData.Orders
	if orders == nil {
		orders = []types.ArchivedOrder{}
	}
	return HistoryDTO{
		ID:               row.ID,
		SessionID:        row.SessionID,
		TableID:          row.TableID,
		TableNumber:      row.TableNumber,
		SessionStartedAt: row.SessionStartedAt,
		CompletedAt:      row.CompletedAt,
		SessionTotal:     row.SessionTotal,
		OrderCount:       row.OrderCount,
		Orders:           orders,
	}
}

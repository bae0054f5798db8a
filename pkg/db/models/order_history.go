package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/types"
)

// OrderHistory is written once per closed session and never updated.
type OrderHistory struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SessionID         uuid.UUID             `gorm:"column:session_id;type:uuid;not null;uniqueIndex"`
	TableID           uuid.UUID             `gorm:"column:table_id;type:uuid;not null"`
	StoreID           uuid.UUID             `gorm:"column:store_id;type:uuid;not null"`
	TableNumber       int                   `gorm:"column:table_number;not null"`
	SessionStartedAt  time.Time             `gorm:"column:session_started_at;not null"`
	CompletedAt       time.Time             `gorm:"column:completed_at;not null"`
	SessionTotal      int64                 `gorm:"column:session_total;not null"`
	OrderCount        int                   `gorm:"column:order_count;not null"`
	ArchivedOrderData types.ArchivedSession `gorm:"column:archived_order_data;type:jsonb;serializer:json;not null"`
}

func (OrderHistory) TableName() string { return "order_history" }

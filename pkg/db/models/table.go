package models

import (
	"time"

	"github.com/google/uuid"
)

// Table is a physical dining table. CurrentSessionID is nil while the table
// has no active session.
type Table struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	StoreID          uuid.UUID  `gorm:"column:store_id;type:uuid;not null;uniqueIndex:uniq_tables_store_number,priority:1"`
	TableNumber      int        `gorm:"column:table_number;not null;uniqueIndex:uniq_tables_store_number,priority:2"`
	PasswordHash     string     `gorm:"column:password_hash;not null"`
	CurrentSessionID *uuid.UUID `gorm:"column:current_session_id;type:uuid"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Table) TableName() string { return "tables" }

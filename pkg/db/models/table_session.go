package models

import (
	"time"

	"github.com/google/uuid"
)

// TableSession is one open period of a table. Once IsActive flips to false
// the row is never reactivated.
type TableSession struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	TableID   uuid.UUID  `gorm:"column:table_id;type:uuid;not null;uniqueIndex:uniq_active_session_per_table,where:is_active"`
	StoreID   uuid.UUID  `gorm:"column:store_id;type:uuid;not null"`
	StartedAt time.Time  `gorm:"column:started_at;not null"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
	IsActive  bool       `gorm:"column:is_active;not null"`
}

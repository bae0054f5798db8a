package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StoreID      uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:uniq_categories_store_name,priority:1"`
	Name         string    `gorm:"column:name;not null;uniqueIndex:uniq_categories_store_name,priority:2"`
	DisplayOrder int       `gorm:"column:display_order;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

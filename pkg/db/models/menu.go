package models

import (
	"time"

	"github.com/google/uuid"
)

// Menu is a sellable item. Price is in the smallest currency unit.
type Menu struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StoreID      uuid.UUID `gorm:"column:store_id;type:uuid;not null"`
	CategoryID   uuid.UUID `gorm:"column:category_id;type:uuid;not null"`
	Name         string    `gorm:"column:name;not null"`
	Price        int64     `gorm:"column:price;not null"`
	Description  *string   `gorm:"column:description"`
	ImageURL     *string   `gorm:"column:image_url"`
	DisplayOrder int       `gorm:"column:display_order;not null"`
	IsAvailable  bool      `gorm:"column:is_available;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

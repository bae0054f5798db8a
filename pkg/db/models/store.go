package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is the tenant boundary. Its single admin account lives inline.
type Store struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name              string    `gorm:"column:name;not null"`
	AdminUsername     string    `gorm:"column:admin_username;not null;uniqueIndex"`
	AdminPasswordHash string    `gorm:"column:admin_password_hash;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

// Order is placed by a table during one session.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	TableID     uuid.UUID         `gorm:"column:table_id;type:uuid;not null"`
	SessionID   uuid.UUID         `gorm:"column:session_id;type:uuid;not null"`
	TotalAmount int64             `gorm:"column:total_amount;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem copies the menu name and price at order time.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	MenuID    *uuid.UUID `gorm:"column:menu_id;type:uuid"`
	MenuName  string     `gorm:"column:menu_name;not null"`
	Quantity  int        `gorm:"column:quantity;not null"`
	UnitPrice int64      `gorm:"column:unit_price;not null"`
	Subtotal  int64      `gorm:"column:subtotal;not null"`
}

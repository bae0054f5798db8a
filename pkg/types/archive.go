package types

import (
	"time"

	"github.com/google/uuid"
)

// ArchivedSession is the value copy stored in order_history when a table
// session closes. It never references live rows.
type ArchivedSession struct {
	Orders       []ArchivedOrder `json:"orders"`
	SessionTotal int64           `json:"session_total"`
}

type ArchivedOrder struct {
	OrderID     uuid.UUID      `json:"order_id"`
	OrderTime   time.Time      `json:"order_time"`
	TotalAmount int64          `json:"total_amount"`
	Status      string         `json:"status"`
	Items       []ArchivedItem `json:"items"`
}

type ArchivedItem struct {
	MenuID    *uuid.UUID `json:"menu_id,omitempty"`
	MenuName  string     `json:"menu_name"`
	Quantity  int        `json:"quantity"`
	UnitPrice int64      `json:"unit_price"`
	Subtotal  int64      `json:"subtotal"`
}

// ItemCount sums quantities across all archived orders.
func (a ArchivedSession) ItemCount() int {
	count := 0
	for _, order := range a.Orders {
		for _, item := range order.Items {
			count += item.Quantity
		}
	}
	return count
}

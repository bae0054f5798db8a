package sessions

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
)

// LoginInput identifies a table by store and number.
type LoginInput struct {
	StoreID     uuid.UUID
	TableNumber int
	Password    string
}

// LoginResult carries the session the table is now bound to.
type LoginResult struct {
	Store   models.Store
	Table   models.Table
	Session models.TableSession
	Resumed bool
}

// CloseInput names the table to close on behalf of an admin store.
type CloseInput struct {
	TableID uuid.UUID
	StoreID uuid.UUID
}

// CloseSummary is returned once the session is archived.
type CloseSummary struct {
	TableID      uuid.UUID `json:"table_id"`
	TableNumber  int       `json:"table_number"`
	StoreID      uuid.UUID `json:"-"`
	SessionID    uuid.UUID `json:"session_id"`
	SessionTotal int64     `json:"total_session_amount"`
	OrderCount   int       `json:"order_count"`
	EndedAt      time.Time `json:"ended_at"`
}

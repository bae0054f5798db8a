package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
)

// CreateStoreInput describes a new store and its admin account.
type CreateStoreInput struct {
	Name          string `validate:"required,min=1,max=100"`
	AdminUsername string `validate:"required,min=3,max=64"`
	AdminPassword string `validate:"required,min=8,max=128"`
}

// StoreDTO is the public view of a store.
type StoreDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	AdminUsername string    `json:"admin_username"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromModel converts a store row into its public view.
func FromModel(store *models.Store) *StoreDTO {
	if store == nil {
		return nil
	}
	return &StoreDTO{
		ID:            store.ID,
		Name:          store.Name,
		AdminUsername: store.AdminUsername,
		CreatedAt:     store.CreatedAt,
	}
}

package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByAdminUsername loads the store whose admin account matches.
func (r *Repository) FindByAdminUsername(ctx context.Context, username string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("admin_username = ?", username).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// ErrStaleCredentials reports that the admin hash changed between read and write.
var ErrStaleCredentials = errors.New("admin credentials changed concurrently")

// SwapAdminPassword replaces the admin hash only while it still equals
// expected. A concurrent change makes it return ErrStaleCredentials.
func (r *Repository) SwapAdminPassword(ctx context.Context, id uuid.UUID, expected, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ? AND admin_password_hash = ?", id, expected).
		Update("admin_password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleCredentials
	}
	return nil
}

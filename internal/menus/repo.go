package menus

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
)

// Repository defines persistence for menus and categories.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListCategories(ctx context.Context, storeID uuid.UUID) ([]models.Category, error)
	FindCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error)
	FindCategoryByName(ctx context.Context, storeID uuid.UUID, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error
	CountMenusInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	ListMenus(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID, availableOnly bool) ([]models.Menu, error)
	FindMenu(ctx context.Context, menuID uuid.UUID) (*models.Menu, error)
	CreateMenu(ctx context.Context, menu *models.Menu) error
	SaveMenu(ctx context.Context, menu *models.Menu) error
	DeleteMenu(ctx context.Context, menuID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a menus repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListCategories(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("display_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) FindCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", categoryID).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) FindCategoryByName(ctx context.Context, storeID uuid.UUID, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND name = ?", storeID, name).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", categoryID).Delete(&models.Category{}).Error
}

func (r *repository) CountMenusInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Menu{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListMenus(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID, availableOnly bool) ([]models.Menu, error) {
	query := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}
	var menus []models.Menu
	if err := query.Order("display_order ASC, name ASC").Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

func (r *repository) FindMenu(ctx context.Context, menuID uuid.UUID) (*models.Menu, error) {
	var menu models.Menu
	if err := r.db.WithContext(ctx).Where("id = ?", menuID).First(&menu).Error; err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *repository) CreateMenu(ctx context.Context, menu *models.Menu) error {
	return r.db.WithContext(ctx).Create(menu).Error
}

func (r *repository) SaveMenu(ctx context.Context, menu *models.Menu) error {
	return r.db.WithContext(ctx).Save(menu).Error
}

// DeleteMenu detaches past order items before removing the menu so their
// copied name and price stay readable.
func (r *repository) DeleteMenu(ctx context.Context, menuID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("menu_id = ?", menuID).
		Update("menu_id", nil).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", menuID).Delete(&models.Menu{}).Error
}

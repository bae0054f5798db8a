package menus

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
)

type CreateMenuInput struct {
	StoreID      uuid.UUID
	CategoryID   uuid.UUID
	Name         string
	Price        int64
	Description  *string
	ImageURL     *string
	DisplayOrder int
	IsAvailable  *bool
}

// UpdateMenuInput applies only the non-nil fields.
type UpdateMenuInput struct {
	StoreID      uuid.UUID
	MenuID       uuid.UUID
	CategoryID   *uuid.UUID
	Name         *string
	Price        *int64
	Description  *string
	ImageURL     *string
	DisplayOrder *int
	IsAvailable  *bool
}

type CreateCategoryInput struct {
	StoreID      uuid.UUID
	Name         string
	DisplayOrder int
}

type MenuDTO struct {
	ID           uuid.UUID `json:"menu_id"`
	CategoryID   uuid.UUID `json:"category_id"`
	Name         string    `json:"menu_name"`
	Price        int64     `json:"price"`
	Description  *string   `json:"description"`
	ImageURL     *string   `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
	IsAvailable  bool      `json:"is_available"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CategoryDTO struct {
	ID           uuid.UUID `json:"category_id"`
	Name         string    `json:"category_name"`
	DisplayOrder int       `json:"display_order"`
}

// CategoryMenus is one section of the customer catalog.
type CategoryMenus struct {
	CategoryDTO
	Menus []MenuDTO `json:"menus"`
}

// Catalog is the cached customer menu view.
type Catalog struct {
	Categories []CategoryMenus `json:"categories"`
}

// ImportRowError describes a spreadsheet row that was skipped.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Created           int              `json:"created"`
	CategoriesCreated int              `json:"categories_created"`
	Skipped           []ImportRowError `json:"skipped"`
}

func menuFromModel(menu models.Menu) MenuDTO {
	return MenuDTO{
		ID:           menu.ID,
		CategoryID:   menu.CategoryID,
		Name:         menu.Name,
		Price:        menu.Price,
		Description:  menu.Description,
		ImageURL:     menu.ImageURL,
		DisplayOrder: menu.DisplayOrder,
		IsAvailable:  menu.IsAvailable,
		UpdatedAt:    menu.UpdatedAt,
	}
}

func categoryFromModel(category models.Category) CategoryDTO {
	return CategoryDTO{
		ID:           category.ID,
		Name:         category.Name,
		DisplayOrder: category.DisplayOrder,
	}
}

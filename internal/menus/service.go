package menus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/tableorder-backend/pkg/redis"
)

const categoryNameIndex = "uniq_categories_store_name"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Cache is the read-through store for customer catalogs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) (int64, error)
	MenuKey(storeID, categoryID string) string
	MenuPrefix(storeID string) string
}

// Service manages menus and categories for a store.
type Service interface {
	Catalog(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID) (*Catalog, error)
	ListMenus(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID) ([]MenuDTO, error)
	CreateMenu(ctx context.Context, input CreateMenuInput) (*MenuDTO, error)
	UpdateMenu(ctx context.Context, input UpdateMenuInput) (*MenuDTO, error)
	DeleteMenu(ctx context.Context, storeID, menuID uuid.UUID) error
	ListCategories(ctx context.Context, storeID uuid.UUID) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) error
	ImportMenus(ctx context.Context, storeID uuid.UUID, rows []ImportRow) (*ImportResult, error)
}

// ServiceParams groups menu service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Cache    Cache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	cache    Cache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the menu service. Cache is optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("menus repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		cache:    params.Cache,
		cacheTTL: ttl,
		logg:     logg,
	}, nil
}

func (s *service) Catalog(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID) (*Catalog, error) {
	key := ""
	if s.cache != nil {
		category := ""
		if categoryID != nil {
			category = categoryID.String()
		}
		key = s.cache.MenuKey(storeID.String(), category)
		if cached, ok := s.readCache(ctx, key); ok {
			return cached, nil
		}
	}

	categories, err := s.repo.ListCategories(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	menus, err := s.repo.ListMenus(ctx, storeID, categoryID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menus")
	}

	byCategory := make(map[uuid.UUID][]MenuDTO, len(categories))
	for _, menu := range menus {
		byCategory[menu.CategoryID] = append(byCategory[menu.CategoryID], menuFromModel(menu))
	}
	catalog := &Catalog{Categories: make([]CategoryMenus, 0, len(categories))}
	for _, category := range categories {
		if categoryID != nil && category.ID != *categoryID {
			continue
		}
		items := byCategory[category.ID]
		if items == nil {
			items = []MenuDTO{}
		}
		catalog.Categories = append(catalog.Categories, CategoryMenus{
			CategoryDTO: categoryFromModel(category),
			Menus:       items,
		})
	}

	if key != "" {
		s.writeCache(ctx, key, catalog)
	}
	return catalog, nil
}

func (s *service) readCache(ctx context.Context, key string) (*Catalog, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.Nil) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "menu.cache_read_failed")
		}
		return nil, false
	}
	var catalog Catalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		return nil, false
	}
	return &catalog, true
}

func (s *service) writeCache(ctx context.Context, key string, catalog *Catalog) {
	payload, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "menu.cache_write_failed")
	}
}

func (s *service) invalidate(ctx context.Context, storeID uuid.UUID) {
	if s.cache == nil {
		return
	}
	removed, err := s.cache.InvalidatePrefix(ctx, s.cache.MenuPrefix(storeID.String()))
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "menu.cache_invalidate_failed")
		return
	}
	s.logg.Debug(s.logg.WithField(ctx, "removed", removed), "menu.cache_invalidated")
}

func (s *service) ListMenus(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID) ([]MenuDTO, error) {
	menus, err := s.repo.ListMenus(ctx, storeID, categoryID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menus")
	}
	out := make([]MenuDTO, 0, len(menus))
	for _, menu := range menus {
		out = append(out, menuFromModel(menu))
	}
	return out, nil
}

func (s *service) CreateMenu(ctx context.Context, input CreateMenuInput) (*MenuDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu name required")
	}
	if input.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if err := s.ownCategory(ctx, s.repo, input.StoreID, input.CategoryID); err != nil {
		return nil, err
	}

	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}
	menu := &models.Menu{
		ID:           uuid.New(),
		StoreID:      input.StoreID,
		CategoryID:   input.CategoryID,
		Name:         name,
		Price:        input.Price,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		DisplayOrder: input.DisplayOrder,
		IsAvailable:  available,
	}
	if err := s.repo.CreateMenu(ctx, menu); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu")
	}
	s.invalidate(ctx, input.StoreID)

	dto := menuFromModel(*menu)
	return &dto, nil
}

func (s *service) UpdateMenu(ctx context.Context, input UpdateMenuInput) (*MenuDTO, error) {
	menu, err := s.ownMenu(ctx, input.StoreID, input.MenuID)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if err := s.ownCategory(ctx, s.repo, input.StoreID, *input.CategoryID); err != nil {
			return nil, err
		}
		menu.CategoryID = *input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu name required")
		}
		menu.Name = name
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		menu.Price = *input.Price
	}
	if input.Description != nil {
		menu.Description = input.Description
	}
	if input.ImageURL != nil {
		menu.ImageURL = input.ImageURL
	}
	if input.DisplayOrder != nil {
		menu.DisplayOrder = *input.DisplayOrder
	}
	if input.IsAvailable != nil {
		menu.IsAvailable = *input.IsAvailable
	}

	if err := s.repo.SaveMenu(ctx, menu); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu")
	}
	s.invalidate(ctx, input.StoreID)

	dto := menuFromModel(*menu)
	return &dto, nil
}

func (s *service) DeleteMenu(ctx context.Context, storeID, menuID uuid.UUID) error {
	if _, err := s.ownMenu(ctx, storeID, menuID); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteMenu(ctx, menuID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu")
	}
	s.invalidate(ctx, storeID)
	return nil
}

func (s *service) ListCategories(ctx context.Context, storeID uuid.UUID) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for _, category := range categories {
		out = append(out, categoryFromModel(category))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	category := &models.Category{
		ID:           uuid.New(),
		StoreID:      input.StoreID,
		Name:         name,
		DisplayOrder: input.DisplayOrder,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, categoryNameIndex) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	s.invalidate(ctx, input.StoreID)

	dto := categoryFromModel(*category)
	return &dto, nil
}

func (s *service) DeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ownCategory(ctx, repo, storeID, categoryID); err != nil {
			return err
		}
		count, err := repo.CountMenusInCategory(ctx, categoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category menus")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "category still has menus").
				WithDetails(map[string]any{"menu_count": count})
		}
		if err := repo.DeleteCategory(ctx, categoryID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, storeID)
	return nil
}

func (s *service) ownCategory(ctx context.Context, repo Repository, storeID, categoryID uuid.UUID) error {
	category, err := repo.FindCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if category.StoreID != storeID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "category belongs to another store")
	}
	return nil
}

func (s *service) ownMenu(ctx context.Context, storeID, menuID uuid.UUID) (*models.Menu, error) {
	menu, err := s.repo.FindMenu(ctx, menuID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu")
	}
	if menu.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "menu belongs to another store")
	}
	return menu, nil
}

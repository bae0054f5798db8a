package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/security"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	SwapAdminPassword(ctx context.Context, id uuid.UUID, expected, hash string) error
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	ChangeAdminPassword(ctx context.Context, storeID uuid.UUID, current, next string) error
}

type service struct {
	repo        storeRepository
	passwordCfg config.PasswordConfig
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	username := strings.TrimSpace(input.AdminUsername)
	if name == "" || username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and admin username required")
	}
	if len(input.AdminPassword) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.AdminPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}

	store := &models.Store{
		ID:                uuid.New(),
		Name:              name,
		AdminUsername:     username,
		AdminPasswordHash: hash,
	}
	if err := s.repo.Create(ctx, store); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "admin username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) ChangeAdminPassword(ctx context.Context, storeID uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must be at least 8 characters")
	}
	store, err := s.load(ctx, storeID)
	if err != nil {
		return err
	}
	valid, err := security.VerifyPassword(current, store.AdminPasswordHash)
	if err != nil || !valid {
		return pkgerrors.New(pkgerrors.CodeAuthenticationFailed, "current password is incorrect")
	}
	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}
	if err := s.repo.SwapAdminPassword(ctx, storeID, store.AdminPasswordHash, hash); err != nil {
		if errors.Is(err, ErrStaleCredentials) {
			return pkgerrors.New(pkgerrors.CodeConflict, "password was changed by another session")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update admin password")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

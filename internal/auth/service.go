package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/internal/sessions"
	pkgAuth "github.com/angelmondragon/tableorder-backend/pkg/auth"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	TableLogin(ctx context.Context, req TableLoginRequest) (*TableLoginResponse, error)
	AdminLogin(ctx context.Context, req AdminLoginRequest) (*AdminLoginResponse, error)
}

type storeRepository interface {
	FindByAdminUsername(ctx context.Context, username string) (*models.Store, error)
}

type sessionAuthenticator interface {
	AuthenticateOrResume(ctx context.Context, input sessions.LoginInput) (*sessions.LoginResult, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Stores    storeRepository
	Sessions  sessionAuthenticator
	JWTConfig config.JWTConfig
}

type service struct {
	stores   storeRepository
	sessions sessionAuthenticator
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Stores == nil {
		return nil, fmt.Errorf("store repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		stores:   params.Stores,
		sessions: params.Sessions,
		jwtCfg:   params.JWTConfig,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) TableLogin(ctx context.Context, req TableLoginRequest) (*TableLoginResponse, error) {
	result, err := s.sessions.AuthenticateOrResume(ctx, sessions.LoginInput{
		StoreID:     req.StoreID,
		TableNumber: req.TableNumber,
		Password:    req.Password,
	})
	if err != nil {
		return nil, err
	}

	tableID := result.Table.ID
	tableNumber := result.Table.TableNumber
	sessionID := result.Session.ID
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		Subject:     pkgAuth.TableSubject(tableID),
		UserType:    enums.UserTypeTable,
		StoreID:     result.Store.ID,
		TableID:     &tableID,
		TableNumber: &tableNumber,
		SessionID:   &sessionID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &TableLoginResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int(s.jwtCfg.TTL().Seconds()),
		TableID:     tableID,
		TableNumber: tableNumber,
		SessionID:   sessionID,
		StoreID:     result.Store.ID,
		StoreName:   result.Store.Name,
		Resumed:     result.Resumed,
	}, nil
}

func (s *service) AdminLogin(ctx context.Context, req AdminLoginRequest) (*AdminLoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeAuthenticationFailed, invalidCredentialsMessage)
	}

	store, err := s.stores.FindByAdminUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeAuthenticationFailed, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup store admin")
	}

	valid, err := security.VerifyPassword(req.Password, store.AdminPasswordHash)
	if err != nil || !valid {
		return nil, pkgerrors.New(pkgerrors.CodeAuthenticationFailed, invalidCredentialsMessage)
	}

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		Subject:  store.AdminUsername,
		UserType: enums.UserTypeAdmin,
		StoreID:  store.ID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &AdminLoginResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int(s.jwtCfg.TTL().Seconds()),
		StoreID:     store.ID,
		StoreName:   store.Name,
		Username:    store.AdminUsername,
	}, nil
}

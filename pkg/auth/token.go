package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed JWT for the provided payload using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if err := validatePayload(payload); err != nil {
		return "", err
	}

	claims := AccessTokenClaims{
		UserType:    payload.UserType,
		StoreID:     payload.StoreID,
		TableID:     payload.TableID,
		TableNumber: payload.TableNumber,
		SessionID:   payload.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func validatePayload(payload AccessTokenPayload) error {
	if strings.TrimSpace(payload.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if payload.StoreID == uuid.Nil {
		return fmt.Errorf("store id is required")
	}
	switch payload.UserType {
	case enums.UserTypeTable:
		if payload.TableID == nil || payload.TableNumber == nil || payload.SessionID == nil {
			return fmt.Errorf("table tokens require table_id, table_number and session_id")
		}
	case enums.UserTypeAdmin:
		if payload.TableID != nil || payload.SessionID != nil {
			return fmt.Errorf("admin tokens must not carry table claims")
		}
	default:
		return fmt.Errorf("invalid user type %q", payload.UserType)
	}
	return nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !claims.UserType.IsValid() {
		return nil, fmt.Errorf("invalid user type %q", claims.UserType)
	}
	if claims.IsTable() && (claims.TableID == nil || claims.SessionID == nil) {
		return nil, fmt.Errorf("table token missing table claims")
	}

	return claims, nil
}

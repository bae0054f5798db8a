package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/tableorder-backend/pkg/auth"
)

type contextKey string

const (
	ctxClaims contextKey = "claims"
)

// ClaimsFromContext returns the verified token claims, or nil.
func ClaimsFromContext(ctx context.Context) *pkgAuth.AccessTokenClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxClaims).(*pkgAuth.AccessTokenClaims); ok {
		return v
	}
	return nil
}

// WithClaims injects token claims into the context.
func WithClaims(ctx context.Context, claims *pkgAuth.AccessTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClaims, claims)
}

func StoreIDFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil && claims.StoreID != uuid.Nil {
		return claims.StoreID.String()
	}
	return ""
}

func UserTypeFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return string(claims.UserType)
	}
	return ""
}

func SubjectFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}

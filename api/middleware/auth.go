package middleware

import (
	"net/http"

	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/api/validators"
	pkgAuth "github.com/angelmondragon/tableorder-backend/pkg/auth"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, logg, false)
}

// StreamAuth is Auth that also accepts ?access_token= for EventSource and
// WebSocket clients.
func StreamAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, logg, true)
}

func authenticate(cfg config.JWTConfig, logg *logger.Logger, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := validators.RequestToken(r, allowQuery)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			if logg != nil {
				ctx = logg.WithUserType(ctx, string(claims.UserType))
				ctx = logg.WithStoreID(ctx, claims.StoreID.String())
				if claims.TableID != nil {
					ctx = logg.WithTableID(ctx, claims.TableID.String())
				}
				if claims.SessionID != nil {
					ctx = logg.WithSessionID(ctx, claims.SessionID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

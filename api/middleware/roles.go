package middleware

import (
	"net/http"

	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

// RequireUserType rejects tokens minted for a different kind of client.
func RequireUserType(userType enums.UserType, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if claims.UserType != userType {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, string(userType)+" token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireTable(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireUserType(enums.UserTypeTable, logg)
}

func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireUserType(enums.UserTypeAdmin, logg)
}

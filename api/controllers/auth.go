package controllers

import (
	"net/http"

	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/api/validators"
	"github.com/angelmondragon/tableorder-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

// TableLogin authenticates a table and starts or resumes its session.
func TableLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.TableLoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.TableLogin(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.AdminLoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminLogin(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

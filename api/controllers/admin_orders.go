package controllers

import (
	"net/http"

	"github.com/angelmondragon/tableorder-backend/api/controllers/storecontext"
	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/api/validators"
	"github.com/angelmondragon/tableorder-backend/internal/orders"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderBoard lists every occupied table with its live orders.
func AdminOrderBoard(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryOrderStatus(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tableID, err := validators.ParseQueryUUID(r, "table_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		board, err := svc.LiveBoard(r.Context(), storeID, orders.BoardFilters{Status: status, TableID: tableID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tables": board})
	}
}

func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		view, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{OrderID: orderID, StoreID: storeID, Status: status})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func AdminDeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deleted, err := svc.DeleteOrder(r.Context(), orders.DeleteOrderInput{OrderID: orderID, StoreID: storeID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleted)
	}
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/api/controllers/storecontext"
	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/api/validators"
	"github.com/angelmondragon/tableorder-backend/internal/menus"
	"github.com/angelmondragon/tableorder-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

type orderItemRequest struct {
	MenuID   uuid.UUID `json:"menu_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0,max=99"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// CustomerMenus returns the table's store catalog, optionally one category.
func CustomerMenus(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		table, err := storecontext.ResolveTable(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		catalog, err := svc.Catalog(r.Context(), table.StoreID, categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog)
	}
}

// CustomerCreateOrder places an order against the session in the token.
func CustomerCreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		table, err := storecontext.ResolveTable(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createOrderRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orders.ItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, orders.ItemInput{MenuID: item.MenuID, Quantity: item.Quantity})
		}
		view, err := svc.CreateOrder(r.Context(), orders.CreateOrderInput{
			StoreID:   table.StoreID,
			TableID:   table.TableID,
			SessionID: table.SessionID,
			Items:     items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CustomerOrders lists the current session's orders with the running total.
func CustomerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		table, err := storecontext.ResolveTable(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.SessionOrders(r.Context(), table.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

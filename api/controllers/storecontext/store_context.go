package storecontext

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
)

// TableContext is the identity a table token carries.
type TableContext struct {
	StoreID     uuid.UUID
	TableID     uuid.UUID
	TableNumber int
	SessionID   uuid.UUID
}

// ResolveAdminStoreID extracts the store of an admin token.
func ResolveAdminStoreID(r *http.Request) (uuid.UUID, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !claims.IsAdmin() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if claims.StoreID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context required")
	}
	return claims.StoreID, nil
}

// ResolveTable extracts the table, store and session of a table token.
func ResolveTable(r *http.Request) (TableContext, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return TableContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !claims.IsTable() || claims.TableID == nil || claims.SessionID == nil {
		return TableContext{}, pkgerrors.New(pkgerrors.CodeForbidden, "table access required")
	}
	tc := TableContext{
		StoreID:   claims.StoreID,
		TableID:   *claims.TableID,
		SessionID: *claims.SessionID,
	}
	if claims.TableNumber != nil {
		tc.TableNumber = *claims.TableNumber
	}
	return tc, nil
}

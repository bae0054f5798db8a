package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/tableorder-backend/api/controllers/storecontext"
	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/api/validators"
	"github.com/angelmondragon/tableorder-backend/internal/tables"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createTableRequest struct {
	TableNumber int    `json:"table_number" validate:"required,gt=0"`
	Password    string `json:"password" validate:"required,min=4,max=64"`
}

func AdminListTables(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "table service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tables": list})
	}
}

func AdminCreateTable(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "table service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createTableRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		table, err := svc.Create(r.Context(), tables.CreateTableInput{
			StoreID:     storeID,
			TableNumber: body.TableNumber,
			Password:    body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, table)
	}
}

// AdminEndSession closes the table's current session and archives it.
func AdminEndSession(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "table service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tableID, err := validators.ParseURLUUID(r, "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.EndSession(r.Context(), storeID, tableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func AdminTableHistory(svc tables.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "table service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tableID, err := validators.ParseURLUUID(r, "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseHistoryFilter(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.History(r.Context(), storeID, tableID, filter, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminExportTableHistory(svc tables.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "table service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tableID, err := validators.ParseURLUUID(r, "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseHistoryFilter(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.ExportHistory(r.Context(), storeID, tableID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filename := fmt.Sprintf("table-history-%s.xlsx", tableID.String()[:8])
		responses.WriteAttachment(w, xlsxContentType, filename, data)
	}
}

// parseHistoryFilter reads start_date/end_date as inclusive calendar days
// and turns end_date into an exclusive bound at the next midnight.
func parseHistoryFilter(r *http.Request, loc *time.Location) (tables.HistoryFilter, error) {
	from, err := validators.ParseQueryDate(r, "start_date", loc)
	if err != nil {
		return tables.HistoryFilter{}, err
	}
	end, err := validators.ParseQueryDate(r, "end_date", loc)
	if err != nil {
		return tables.HistoryFilter{}, err
	}
	filter := tables.HistoryFilter{From: from}
	if end != nil {
		to := end.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return tables.HistoryFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "start_date must not be after end_date")
	}
	return filter, nil
}

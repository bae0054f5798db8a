package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/tableorder-backend/api/controllers/storecontext"
	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/api/validators"
	"github.com/angelmondragon/tableorder-backend/internal/reports"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

const defaultReportDays = 7

// AdminSalesReport summarizes archived sessions for [from, to]. Both dates
// are inclusive calendar days; the default is the last seven days.
func AdminSalesReport(svc reports.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if loc == nil {
			loc = time.UTC
		}
		from, err := validators.ParseQueryDate(r, "from", loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to", loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		now := time.Now().In(loc)
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		if to != nil {
			end = to.AddDate(0, 0, 1)
		}
		start := end.AddDate(0, 0, -defaultReportDays)
		if from != nil {
			start = *from
		}

		summary, err := svc.SalesSummary(r.Context(), storeID, start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

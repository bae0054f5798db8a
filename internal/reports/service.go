package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
)

const (
	maxReportRange = 366 * 24 * time.Hour
	dayLayout      = "2006-01-02"
)

type DailySales struct {
	Date       string `json:"date"`
	Sessions   int    `json:"sessions"`
	OrderCount int    `json:"order_count"`
	Revenue    int64  `json:"revenue"`
}

// SalesSummary aggregates archived sessions over [From, To).
type SalesSummary struct {
	From                time.Time       `json:"from"`
	To                  time.Time       `json:"to"`
	SessionCount        int             `json:"session_count"`
	OrderCount          int             `json:"order_count"`
	Revenue             int64           `json:"revenue"`
	AverageOrderValue   decimal.Decimal `json:"average_order_value"`
	AverageSessionValue decimal.Decimal `json:"average_session_value"`
	Daily               []DailySales    `json:"daily"`
}

type Service interface {
	SalesSummary(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*SalesSummary, error)
}

type service struct {
	repo Repository
	loc  *time.Location
}

// NewService builds the reports service. Daily buckets use loc.
func NewService(repo Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc}, nil
}

func (s *service) SalesSummary(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*SalesSummary, error) {
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	if to.Sub(from) > maxReportRange {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report range cannot exceed one year")
	}

	rows, err := s.repo.ListClosedSessions(ctx, storeID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load closed sessions")
	}

	summary := &SalesSummary{
		From:                from,
		To:                  to,
		AverageOrderValue:   decimal.Zero,
		AverageSessionValue: decimal.Zero,
		Daily:               []DailySales{},
	}
	index := map[string]int{}
	for _, row := range rows {
		summary.SessionCount++
		summary.OrderCount += row.OrderCount
		summary.Revenue += row.SessionTotal

		day := row.CompletedAt.In(s.loc).Format(dayLayout)
		i, ok := index[day]
		if !ok {
			i = len(summary.Daily)
			index[day] = i
			summary.Daily = append(summary.Daily, DailySales{Date: day})
		}
		summary.Daily[i].Sessions++
		summary.Daily[i].OrderCount += row.OrderCount
		summary.Daily[i].Revenue += row.SessionTotal
	}

	revenue := decimal.NewFromInt(summary.Revenue)
	if summary.OrderCount > 0 {
		summary.AverageOrderValue = revenue.Div(decimal.NewFromInt(int64(summary.OrderCount))).Round(2)
	}
	if summary.SessionCount > 0 {
		summary.AverageSessionValue = revenue.Div(decimal.NewFromInt(int64(summary.SessionCount))).Round(2)
	}
	return summary, nil
}

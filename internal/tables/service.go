package tables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/internal/sessions"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/pagination"
	"github.com/angelmondragon/tableorder-backend/pkg/security"
)

const (
	minTablePasswordLen = 4
	maxTablePasswordLen = 64
)

type sessionCloser interface {
	Close(ctx context.Context, input sessions.CloseInput) (*sessions.CloseSummary, error)
}

// Service covers admin table management and archived session reads.
type Service interface {
	List(ctx context.Context, storeID uuid.UUID) ([]TableDTO, error)
	Create(ctx context.Context, input CreateTableInput) (*TableDTO, error)
	EndSession(ctx context.Context, storeID, tableID uuid.UUID) (*sessions.CloseSummary, error)
	History(ctx context.Context, storeID, tableID uuid.UUID, filter HistoryFilter, params pagination.Params) (*pagination.Page[HistoryDTO], error)
	ExportHistory(ctx context.Context, storeID, tableID uuid.UUID, filter HistoryFilter) ([]byte, error)
	PurgeHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	repo        Repository
	closer      sessionCloser
	passwordCfg config.PasswordConfig
}

// NewService wires the tables service.
func NewService(repo Repository, closer sessionCloser, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tables repository required")
	}
	if closer == nil {
		return nil, fmt.Errorf("session closer required")
	}
	return &service{repo: repo, closer: closer, passwordCfg: passwordCfg}, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID) ([]TableDTO, error) {
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables")
	}

	sessionIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.CurrentSessionID != nil {
			sessionIDs = append(sessionIDs, *row.CurrentSessionID)
		}
	}
	counts, err := s.repo.CountOrdersBySession(ctx, sessionIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count session orders")
	}
	live, err := s.repo.FindSessions(ctx, sessionIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sessions")
	}
	startedAt := make(map[uuid.UUID]time.Time, len(live))
	for _, session := range live {
		startedAt[session.ID] = session.StartedAt
	}

	out := make([]TableDTO, 0, len(rows))
	for _, row := range rows {
		dto := TableDTO{
			ID:               row.ID,
			TableNumber:      row.TableNumber,
			CurrentSessionID: row.CurrentSessionID,
			CreatedAt:        row.CreatedAt,
		}
		if row.CurrentSessionID != nil {
			dto.ActiveOrderCount = counts[*row.CurrentSessionID]
			if at, ok := startedAt[*row.CurrentSessionID]; ok {
				dto.SessionStartedAt = &at
			}
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateTableInput) (*TableDTO, error) {
	if input.TableNumber <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table number must be positive")
	}
	if n := len(input.Password); n < minTablePasswordLen || n > maxTablePasswordLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table password must be 4 to 64 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash table password")
	}
	table := &models.Table{
		ID:           uuid.New(),
		StoreID:      input.StoreID,
		TableNumber:  input.TableNumber,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, table); err != nil {
		if db.IsUniqueViolation(err, "uniq_tables_store_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "table number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create table")
	}
	return &TableDTO{
		ID:          table.ID,
		TableNumber: table.TableNumber,
		CreatedAt:   table.CreatedAt,
	}, nil
}

func (s *service) EndSession(ctx context.Context, storeID, tableID uuid.UUID) (*sessions.CloseSummary, error) {
	return s.closer.Close(ctx, sessions.CloseInput{TableID: tableID, StoreID: storeID})
}

func (s *service) History(ctx context.Context, storeID, tableID uuid.UUID, filter HistoryFilter, params pagination.Params) (*pagination.Page[HistoryDTO], error) {
	if err := s.ownTable(ctx, storeID, tableID); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date must be before end date")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListHistory(ctx, tableID, filter, cursor, pagination.FetchSize(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}
	total, err := s.repo.CountHistory(ctx, tableID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count history")
	}

	page := pagination.BuildPage(rows, params.Limit, total, historyCursor, historyFromModel)
	return &page, nil
}

func (s *service) ExportHistory(ctx context.Context, storeID, tableID uuid.UUID, filter HistoryFilter) ([]byte, error) {
	if err := s.ownTable(ctx, storeID, tableID); err != nil {
		return nil, err
	}

	var (
		all    []models.OrderHistory
		cursor *pagination.Cursor
	)
	for {
		rows, err := s.repo.ListHistory(ctx, tableID, filter, cursor, pagination.MaxLimit)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
		}
		all = append(all, rows...)
		if len(rows) < pagination.MaxLimit || len(all) >= maxExportSessions {
			break
		}
		last := rows[len(rows)-1]
		c := historyCursor(last)
		cursor = &c
	}

	data, err := writeHistoryWorkbook(all)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build history workbook")
	}
	return data, nil
}

func (s *service) PurgeHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteHistoryBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge history")
	}
	return deleted, nil
}

func (s *service) ownTable(ctx context.Context, storeID, tableID uuid.UUID) error {
	table, err := s.repo.FindByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}
	if table.StoreID != storeID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "table belongs to another store")
	}
	return nil
}

func historyCursor(h models.OrderHistory) pagination.Cursor {
	return pagination.Cursor{At: h.CompletedAt, ID: h.ID}
}

package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/security"
	"github.com/angelmondragon/tableorder-backend/pkg/types"
)

const activeSessionIndex = "uniq_active_session_per_table"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Manager owns the open/close lifecycle of table sessions.
type Manager interface {
	AuthenticateOrResume(ctx context.Context, input LoginInput) (*LoginResult, error)
	Close(ctx context.Context, input CloseInput) (*CloseSummary, error)
	StaleSessions(ctx context.Context, startedBefore time.Time, limit int) ([]models.TableSession, error)
}

// ManagerParams groups the Manager dependencies.
type ManagerParams struct {
	Repo      Repository
	Tx        txRunner
	Publisher broadcast.Publisher
	Password  config.PasswordConfig
	Logger    *logger.Logger
}

type manager struct {
	repo      Repository
	tx        txRunner
	publisher broadcast.Publisher
	password  config.PasswordConfig
	logg      *logger.Logger
	locks     *tableLocks
	now       func() time.Time
}

// NewManager validates dependencies and builds a session Manager.
func NewManager(params ManagerParams) (Manager, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("broadcast publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &manager{
		repo:      params.Repo,
		tx:        params.Tx,
		publisher: params.Publisher,
		password:  params.Password,
		logg:      logg,
		locks:     newTableLocks(),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (m *manager) AuthenticateOrResume(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.TableNumber <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table number must be positive")
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password required")
	}

	store, err := m.repo.FindStore(ctx, input.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	table, err := m.repo.FindTableByNumber(ctx, input.StoreID, input.TableNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}

	ok, err := security.VerifyPassword(input.Password, table.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeAuthenticationFailed, "invalid table credentials")
	}
	m.maybeRehash(ctx, table, input.Password)

	unlock := m.locks.Lock(table.ID)
	defer unlock()

	var (
		session *models.TableSession
		resumed bool
	)
	err = m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)

		locked, err := repo.LockTable(ctx, table.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock table")
		}
		table = locked

		active, err := currentActiveSession(ctx, repo, locked)
		if err != nil {
			return err
		}
		if active != nil {
			session = active
			resumed = true
			if locked.CurrentSessionID == nil || *locked.CurrentSessionID != active.ID {
				if err := repo.SetCurrentSession(ctx, locked.ID, &active.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "repair current session")
				}
				table.CurrentSessionID = &active.ID
			}
			return nil
		}

		created := &models.TableSession{
			ID:        uuid.New(),
			TableID:   locked.ID,
			StoreID:   locked.StoreID,
			StartedAt: m.now(),
			IsActive:  true,
		}
		if err := repo.CreateSession(ctx, created); err != nil {
			if db.IsUniqueViolation(err, activeSessionIndex) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "table already has an active session")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
		}
		if err := repo.SetCurrentSession(ctx, locked.ID, &created.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set current session")
		}
		table.CurrentSessionID = &created.ID
		session = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := m.logg.WithTableID(ctx, table.ID.String())
	logCtx = m.logg.WithSessionID(logCtx, session.ID.String())
	if resumed {
		m.logg.Info(logCtx, "session.resumed")
	} else {
		m.logg.Info(logCtx, "session.started")
	}

	return &LoginResult{
		Store:   *store,
		Table:   *table,
		Session: *session,
		Resumed: resumed,
	}, nil
}

// currentActiveSession resolves the live session through the table pointer,
// falling back to the is_active index when the pointer is missing.
func currentActiveSession(ctx context.Context, repo Repository, table *models.Table) (*models.TableSession, error) {
	if table.CurrentSessionID != nil {
		session, err := repo.LockSession(ctx, *table.CurrentSessionID)
		switch {
		case err == nil && session.IsActive:
			return session, nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current session")
		}
	}

	session, err := repo.FindActiveSessionByTable(ctx, table.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active session")
	}
	return session, nil
}

func (m *manager) maybeRehash(ctx context.Context, table *models.Table, password string) {
	if m.password.ArgonMemoryKB == 0 || !security.NeedsRehash(table.PasswordHash, m.password) {
		return
	}
	hash, err := security.HashPassword(password, m.password)
	if err == nil {
		err = m.repo.UpdateTablePasswordHash(ctx, table.ID, hash)
	}
	if err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "table.password_rehash_failed")
		return
	}
	table.PasswordHash = hash
}

func (m *manager) Close(ctx context.Context, input CloseInput) (*CloseSummary, error) {
	if input.TableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}

	unlock := m.locks.Lock(input.TableID)
	defer unlock()

	var summary *CloseSummary
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)

		table, err := repo.LockTable(ctx, input.TableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock table")
		}
		if table.StoreID != input.StoreID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "table belongs to another store")
		}
		session, err := currentActiveSession(ctx, repo, table)
		if err != nil {
			return err
		}
		if session == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "table has no active session")
		}

		orders, err := repo.ListSessionOrders(ctx, session.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session orders")
		}

		endedAt := m.now()
		archive := ArchiveOrders(orders)
		history := &models.OrderHistory{
			ID:                uuid.New(),
			SessionID:         session.ID,
			TableID:           table.ID,
			StoreID:           table.StoreID,
			TableNumber:       table.TableNumber,
			SessionStartedAt:  session.StartedAt,
			CompletedAt:       endedAt,
			SessionTotal:      archive.SessionTotal,
			OrderCount:        len(archive.Orders),
			ArchivedOrderData: archive,
		}
		if err := repo.CreateHistory(ctx, history); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "session already archived")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive session")
		}

		closed, err := repo.DeactivateSession(ctx, session.ID, endedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate session")
		}
		if !closed {
			return pkgerrors.New(pkgerrors.CodeConflict, "session already closed")
		}
		if err := repo.SetCurrentSession(ctx, table.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear current session")
		}

		summary = &CloseSummary{
			TableID:      table.ID,
			TableNumber:  table.TableNumber,
			StoreID:      table.StoreID,
			SessionID:    session.ID,
			SessionTotal: archive.SessionTotal,
			OrderCount:   len(archive.Orders),
			EndedAt:      endedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.publisher.Broadcast(ctx, summary.StoreID, enums.StreamEventSessionEnded, broadcast.SessionEnded{
		TableID:     summary.TableID,
		TableNumber: summary.TableNumber,
		SessionID:   summary.SessionID,
	})

	logCtx := m.logg.WithTableID(ctx, summary.TableID.String())
	logCtx = m.logg.WithSessionID(logCtx, summary.SessionID.String())
	logCtx = m.logg.WithFields(logCtx, map[string]any{
		"session_total": summary.SessionTotal,
		"order_count":   summary.OrderCount,
	})
	m.logg.Info(logCtx, "session.closed")

	return summary, nil
}

func (m *manager) StaleSessions(ctx context.Context, startedBefore time.Time, limit int) ([]models.TableSession, error) {
	if limit <= 0 {
		limit = 100
	}
	sessions, err := m.repo.ListStaleSessions(ctx, startedBefore, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale sessions")
	}
	return sessions, nil
}

// ArchiveOrders copies orders and their items into the value-only archive
// shape stored with the session history.
func ArchiveOrders(orders []models.Order) types.ArchivedSession {
	archive := types.ArchivedSession{Orders: make([]types.ArchivedOrder, 0, len(orders))}
	for _, order := range orders {
		items := make([]types.ArchivedItem, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, types.ArchivedItem{
				MenuID:    item.MenuID,
				MenuName:  item.MenuName,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  item.Subtotal,
			})
		}
		archive.Orders = append(archive.Orders, types.ArchivedOrder{
			OrderID:     order.ID,
			OrderTime:   order.CreatedAt,
			TotalAmount: order.TotalAmount,
			Status:      order.Status.String(),
			Items:       items,
		})
		archive.SessionTotal += order.TotalAmount
	}
	return archive
}

package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the order ledger: placement, status changes and removal.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderView, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderView, error)
	DeleteOrder(ctx context.Context, input DeleteOrderInput) (*DeletedOrder, error)
	TotalsForSession(ctx context.Context, sessionID uuid.UUID) (int64, error)
	SessionOrders(ctx context.Context, sessionID uuid.UUID) (*SessionOrders, error)
	LiveBoard(ctx context.Context, storeID uuid.UUID, filters BoardFilters) ([]TableBoard, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	publisher broadcast.Publisher
	logg      *logger.Logger
}

// NewService builds the order ledger with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher broadcast.Publisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("broadcast publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		logg:      logg,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderView, error) {
	if input.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	menuIDs := make([]uuid.UUID, 0, len(input.Items))
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"item": i})
		}
		menuIDs = append(menuIDs, item.MenuID)
	}

	var (
		order *models.Order
		table *models.Table
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, err := repo.LockSession(ctx, input.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
		}
		if session.StoreID != input.StoreID || session.TableID != input.TableID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "session belongs to another table")
		}
		if !session.IsActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "session is no longer active")
		}

		table, err = repo.FindTable(ctx, session.TableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
		}

		menus, err := repo.FindMenus(ctx, menuIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menus")
		}
		byID := make(map[uuid.UUID]models.Menu, len(menus))
		for _, menu := range menus {
			byID[menu.ID] = menu
		}

		order = &models.Order{
			ID:        uuid.New(),
			StoreID:   session.StoreID,
			TableID:   session.TableID,
			SessionID: session.ID,
			Status:    enums.OrderStatusWaiting,
			Items:     make([]models.OrderItem, 0, len(input.Items)),
		}
		for _, item := range input.Items {
			menu, ok := byID[item.MenuID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "menu not found").
					WithDetails(map[string]any{"menu_id": item.MenuID})
			}
			if menu.StoreID != session.StoreID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "menu belongs to another store")
			}
			menuID := menu.ID
			subtotal := menu.Price * int64(item.Quantity)
			order.Items = append(order.Items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				MenuID:    &menuID,
				MenuName:  menu.Name,
				Quantity:  item.Quantity,
				UnitPrice: menu.Price,
				Subtotal:  subtotal,
			})
			order.TotalAmount += subtotal
		}
		if order.TotalAmount <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
		}

		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := toOrderView(*order)
	s.publisher.Broadcast(ctx, order.StoreID, enums.StreamEventOrderCreated, orderCreatedPayload(view, table.TableNumber))

	logCtx := s.logg.WithSessionID(ctx, order.SessionID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"order_id":     order.ID.String(),
		"total_amount": order.TotalAmount,
	})
	s.logg.Info(logCtx, "order.created")
	return &view, nil
}

var errOrderCompleted = pkgerrors.New(pkgerrors.CodeValidation, "completed orders cannot change status")

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderView, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := s.ownedOrder(ctx, repo, input.OrderID, input.StoreID)
		if err != nil {
			return err
		}
		if found.Status.IsTerminal() {
			return errOrderCompleted
		}
		updated, err := repo.UpdateOrderStatus(ctx, found.ID, input.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !updated {
			return errOrderCompleted
		}
		found.Status = input.Status
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Broadcast(ctx, order.StoreID, enums.StreamEventOrderUpdated, broadcast.OrderUpdated{
		OrderID: order.ID,
		TableID: order.TableID,
		Status:  order.Status,
	})
	view := toOrderView(*order)
	return &view, nil
}

func (s *service) DeleteOrder(ctx context.Context, input DeleteOrderInput) (*DeletedOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var (
		deleted *DeletedOrder
		storeID uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.ownedOrder(ctx, repo, input.OrderID, input.StoreID)
		if err != nil {
			return err
		}
		ok, err := repo.DeleteOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		deleted = &DeletedOrder{OrderID: order.ID, TableID: order.TableID}
		storeID = order.StoreID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Broadcast(ctx, storeID, enums.StreamEventOrderDeleted, broadcast.OrderDeleted{
		OrderID: deleted.OrderID,
		TableID: deleted.TableID,
	})
	return deleted, nil
}

func (s *service) TotalsForSession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	total, err := s.repo.SumSessionTotal(ctx, sessionID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum session orders")
	}
	return total, nil
}

func (s *service) SessionOrders(ctx context.Context, sessionID uuid.UUID) (*SessionOrders, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	orders, err := s.repo.ListSessionOrders(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list session orders")
	}
	out := &SessionOrders{SessionID: sessionID, Orders: make([]OrderView, 0, len(orders))}
	for _, order := range orders {
		out.Orders = append(out.Orders, toOrderView(order))
		out.TotalAmount += order.TotalAmount
	}
	return out, nil
}

// LiveBoard returns the current-session orders of every occupied table,
// grouped by table in table number order.
func (s *service) LiveBoard(ctx context.Context, storeID uuid.UUID, filters BoardFilters) ([]TableBoard, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	tables, err := s.repo.ListActiveTables(ctx, storeID, filters.TableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active tables")
	}

	boards := make([]TableBoard, 0, len(tables))
	if len(tables) == 0 {
		return boards, nil
	}

	sessionIDs := make([]uuid.UUID, 0, len(tables))
	index := make(map[uuid.UUID]int, len(tables))
	for _, table := range tables {
		sessionID := *table.CurrentSessionID
		index[sessionID] = len(boards)
		sessionIDs = append(sessionIDs, sessionID)
		boards = append(boards, TableBoard{
			TableID:     table.ID,
			TableNumber: table.TableNumber,
			SessionID:   sessionID,
			Orders:      []OrderView{},
		})
	}

	orders, err := s.repo.ListOrdersForSessions(ctx, sessionIDs, filters.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list live orders")
	}
	for _, order := range orders {
		i, ok := index[order.SessionID]
		if !ok {
			continue
		}
		boards[i].Orders = append(boards[i].Orders, toOrderView(order))
		boards[i].TotalAmount += order.TotalAmount
		boards[i].OrderCount++
	}
	return boards, nil
}

func (s *service) ownedOrder(ctx context.Context, repo Repository, orderID, storeID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another store")
	}
	return order, nil
}

func orderCreatedPayload(view OrderView, tableNumber int) broadcast.OrderCreated {
	items := make([]broadcast.OrderItemPayload, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, broadcast.OrderItemPayload{
			MenuID:    item.MenuID,
			MenuName:  item.MenuName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return broadcast.OrderCreated{
		OrderID:     view.ID,
		TableID:     view.TableID,
		TableNumber: tableNumber,
		TotalAmount: view.TotalAmount,
		Status:      view.Status,
		OrderTime:   view.OrderTime,
		Items:       items,
	}
}

package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tableorder-backend/internal/broadcast/broadcasttest"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
)

type stubOrdersRepo struct {
	session      *models.TableSession
	order        *models.Order
	sessionErr   error
	sumErr       error
	updated      enums.OrderStatus
	updateCalled bool
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) LockSession(ctx context.Context, sessionID uuid.UUID) (*models.TableSession, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	if s.session == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.session, nil
}

func (s *stubOrdersRepo) FindTable(ctx context.Context, tableID uuid.UUID) (*models.Table, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindMenus(ctx context.Context, menuIDs []uuid.UUID) ([]models.Menu, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (bool, error) {
	s.updateCalled = true
	s.updated = status
	return true, nil
}

func (s *stubOrdersRepo) DeleteOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListSessionOrders(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) SumSessionTotal(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return 0, s.sumErr
}

func (s *stubOrdersRepo) ListActiveTables(ctx context.Context, storeID uuid.UUID, tableID *uuid.UUID) ([]models.Table, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListOrdersForSessions(ctx context.Context, sessionIDs []uuid.UUID, status *enums.OrderStatus) ([]models.Order, error) {
	panic("not implemented")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newStubService(t *testing.T, repo *stubOrdersRepo) (Service, *broadcasttest.Recorder) {
	t.Helper()
	publisher := &broadcasttest.Recorder{}
	svc, err := NewService(repo, stubTxRunner{}, publisher, nil)
	require.NoError(t, err)
	return svc, publisher
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, stubTxRunner{}, &broadcasttest.Recorder{}, nil)
	require.Error(t, err)
	_, err = NewService(&stubOrdersRepo{}, nil, &broadcasttest.Recorder{}, nil)
	require.Error(t, err)
	_, err = NewService(&stubOrdersRepo{}, stubTxRunner{}, nil, nil)
	require.Error(t, err)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	svc, _ := newStubService(t, &stubOrdersRepo{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{SessionID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		SessionID: uuid.New(),
		Items:     []ItemInput{{MenuID: uuid.New(), Quantity: 0}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrderMissingSession(t *testing.T) {
	svc, publisher := newStubService(t, &stubOrdersRepo{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SessionID: uuid.New(),
		Items:     []ItemInput{{MenuID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Empty(t, publisher.Events())
}

func TestCreateOrderInactiveSessionConflicts(t *testing.T) {
	storeID, tableID := uuid.New(), uuid.New()
	repo := &stubOrdersRepo{session: &models.TableSession{
		ID:      uuid.New(),
		StoreID: storeID,
		TableID: tableID,
	}}
	svc, _ := newStubService(t, repo)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		StoreID:   storeID,
		TableID:   tableID,
		SessionID: repo.session.ID,
		Items:     []ItemInput{{MenuID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateOrderWrapsStoreFailure(t *testing.T) {
	svc, _ := newStubService(t, &stubOrdersRepo{sessionErr: errors.New("connection reset")})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SessionID: uuid.New(),
		Items:     []ItemInput{{MenuID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestUpdateStatusTerminalOrderRejected(t *testing.T) {
	storeID := uuid.New()
	repo := &stubOrdersRepo{order: &models.Order{
		ID:      uuid.New(),
		StoreID: storeID,
		Status:  enums.OrderStatusCompleted,
	}}
	svc, publisher := newStubService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: repo.order.ID,
		StoreID: storeID,
		Status:  enums.OrderStatusWaiting,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.False(t, repo.updateCalled)
	assert.Empty(t, publisher.Events())
}

func TestUpdateStatusOtherStoreForbidden(t *testing.T) {
	repo := &stubOrdersRepo{order: &models.Order{
		ID:      uuid.New(),
		StoreID: uuid.New(),
		Status:  enums.OrderStatusWaiting,
	}}
	svc, _ := newStubService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: repo.order.ID,
		StoreID: uuid.New(),
		Status:  enums.OrderStatusPreparing,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newStubService(t, &stubOrdersRepo{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: uuid.New(),
		StoreID: uuid.New(),
		Status:  enums.OrderStatus("served"),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestTotalsForSessionWrapsError(t *testing.T) {
	svc, _ := newStubService(t, &stubOrdersRepo{sumErr: errors.New("boom")})

	_, err := svc.TotalsForSession(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

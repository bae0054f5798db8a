package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/internal/broadcast/broadcasttest"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tableorder-backend/pkg/db/models"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fixture struct {
	client    *db.Client
	manager   Manager
	publisher *broadcasttest.Recorder
	store     models.Store
	table     models.Table
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)

	hash, err := security.HashPassword("1234", testPasswordCfg)
	require.NoError(t, err)

	store := models.Store{
		ID:                uuid.New(),
		Name:              "Main Street",
		AdminUsername:     "admin-" + uuid.NewString()[:8],
		AdminPasswordHash: hash,
	}
	require.NoError(t, client.DB().Create(&store).Error)

	table := models.Table{
		ID:           uuid.New(),
		StoreID:      store.ID,
		TableNumber:  1,
		PasswordHash: hash,
	}
	require.NoError(t, client.DB().Create(&table).Error)

	publisher := &broadcasttest.Recorder{}
	manager, err := NewManager(ManagerParams{
		Repo:      NewRepository(client.DB()),
		Tx:        client,
		Publisher: publisher,
		Password:  testPasswordCfg,
	})
	require.NoError(t, err)

	return &fixture{client: client, manager: manager, publisher: publisher, store: store, table: table}
}

func (f *fixture) login(t *testing.T) *LoginResult {
	t.Helper()
	result, err := f.manager.AuthenticateOrResume(context.Background(), LoginInput{
		StoreID:     f.store.ID,
		TableNumber: f.table.TableNumber,
		Password:    "1234",
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) placeOrder(t *testing.T, sessionID uuid.UUID, total int64, status enums.OrderStatus) models.Order {
	t.Helper()
	order := models.Order{
		ID:          uuid.New(),
		StoreID:     f.store.ID,
		TableID:     f.table.ID,
		SessionID:   sessionID,
		TotalAmount: total,
		Status:      status,
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			MenuName:  "Bibimbap",
			Quantity:  1,
			UnitPrice: total,
			Subtotal:  total,
		}},
	}
	require.NoError(t, f.client.DB().Create(&order).Error)
	return order
}

func TestNewManagerRequiresDependencies(t *testing.T) {
	_, err := NewManager(ManagerParams{})
	require.Error(t, err)
}

func TestAuthenticateOrResumeStartsSession(t *testing.T) {
	f := newFixture(t)

	result := f.login(t)

	assert.False(t, result.Resumed)
	assert.True(t, result.Session.IsActive)
	assert.Equal(t, f.table.ID, result.Session.TableID)
	require.NotNil(t, result.Table.CurrentSessionID)
	assert.Equal(t, result.Session.ID, *result.Table.CurrentSessionID)

	var stored models.Table
	require.NoError(t, f.client.DB().First(&stored, "id = ?", f.table.ID).Error)
	require.NotNil(t, stored.CurrentSessionID)
	assert.Equal(t, result.Session.ID, *stored.CurrentSessionID)
}

func TestAuthenticateOrResumeReusesActiveSession(t *testing.T) {
	f := newFixture(t)

	first := f.login(t)
	second := f.login(t)

	assert.True(t, second.Resumed)
	assert.Equal(t, first.Session.ID, second.Session.ID)
}

func TestAuthenticateOrResumeConcurrentLoginsShareSession(t *testing.T) {
	f := newFixture(t)

	const workers = 8
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.manager.AuthenticateOrResume(context.Background(), LoginInput{
				StoreID:     f.store.ID,
				TableNumber: f.table.TableNumber,
				Password:    "1234",
			})
			errs[i] = err
			if err == nil {
				ids[i] = result.Session.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var active int64
	require.NoError(t, f.client.DB().Model(&models.TableSession{}).
		Where("table_id = ? AND is_active = ?", f.table.ID, true).
		Count(&active).Error)
	assert.EqualValues(t, 1, active)
}

func TestAuthenticateOrResumeRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.AuthenticateOrResume(ctx, LoginInput{StoreID: f.store.ID, TableNumber: 1, Password: "nope"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAuthenticationFailed))

	_, err = f.manager.AuthenticateOrResume(ctx, LoginInput{StoreID: f.store.ID, TableNumber: 99, Password: "1234"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.manager.AuthenticateOrResume(ctx, LoginInput{StoreID: uuid.New(), TableNumber: 1, Password: "1234"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.manager.AuthenticateOrResume(ctx, LoginInput{StoreID: f.store.ID, TableNumber: 0, Password: "1234"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAuthenticateOrResumeRepairsMissingPointer(t *testing.T) {
	f := newFixture(t)
	first := f.login(t)

	require.NoError(t, f.client.DB().Model(&models.Table{}).
		Where("id = ?", f.table.ID).
		Update("current_session_id", nil).Error)

	second := f.login(t)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.Session.ID, second.Session.ID)
	require.NotNil(t, second.Table.CurrentSessionID)
	assert.Equal(t, first.Session.ID, *second.Table.CurrentSessionID)
}

func TestCloseArchivesSession(t *testing.T) {
	f := newFixture(t)
	login := f.login(t)
	done := f.placeOrder(t, login.Session.ID, 3500, enums.OrderStatusCompleted)
	waiting := f.placeOrder(t, login.Session.ID, 1500, enums.OrderStatusWaiting)

	summary, err := f.manager.Close(context.Background(), CloseInput{TableID: f.table.ID, StoreID: f.store.ID})
	require.NoError(t, err)
	assert.Equal(t, login.Session.ID, summary.SessionID)
	assert.EqualValues(t, 5000, summary.SessionTotal)
	assert.Equal(t, 2, summary.OrderCount)

	var history models.OrderHistory
	require.NoError(t, f.client.DB().First(&history, "session_id = ?", login.Session.ID).Error)
	assert.EqualValues(t, 5000, history.SessionTotal)
	assert.Equal(t, 2, history.OrderCount)
	assert.Equal(t, 1, history.TableNumber)
	require.Len(t, history.ArchivedOrderData.Orders, 2)
	assert.Equal(t, "Bibimbap", history.ArchivedOrderData.Orders[0].Items[0].MenuName)

	var session models.TableSession
	require.NoError(t, f.client.DB().First(&session, "id = ?", login.Session.ID).Error)
	assert.False(t, session.IsActive)
	assert.NotNil(t, session.EndedAt)

	var table models.Table
	require.NoError(t, f.client.DB().First(&table, "id = ?", f.table.ID).Error)
	assert.Nil(t, table.CurrentSessionID)

	events := f.publisher.OfType(enums.StreamEventSessionEnded)
	require.Len(t, events, 1)
	payload, ok := events[0].Payload.(broadcast.SessionEnded)
	require.True(t, ok)
	assert.Equal(t, login.Session.ID, payload.SessionID)
	assert.Equal(t, f.store.ID, events[0].StoreID)

	// The archive is a snapshot: later edits to the live rows leave it alone.
	gdb := f.client.DB()
	require.NoError(t, gdb.Model(&models.Order{}).Where("id = ?", waiting.ID).Update("status", enums.OrderStatusPreparing).Error)
	require.NoError(t, gdb.Where("order_id = ?", done.ID).Delete(&models.OrderItem{}).Error)
	require.NoError(t, gdb.Where("id = ?", done.ID).Delete(&models.Order{}).Error)

	var reread models.OrderHistory
	require.NoError(t, gdb.First(&reread, "session_id = ?", login.Session.ID).Error)
	assert.EqualValues(t, 5000, reread.SessionTotal)
	assert.Equal(t, 2, reread.OrderCount)
	assert.Equal(t, history.ArchivedOrderData, reread.ArchivedOrderData)
}

func TestCloseFindsActiveSessionWithoutPointer(t *testing.T) {
	f := newFixture(t)
	login := f.login(t)

	require.NoError(t, f.client.DB().Model(&models.Table{}).
		Where("id = ?", f.table.ID).
		Update("current_session_id", nil).Error)

	summary, err := f.manager.Close(context.Background(), CloseInput{TableID: f.table.ID, StoreID: f.store.ID})
	require.NoError(t, err)
	assert.Equal(t, login.Session.ID, summary.SessionID)

	var session models.TableSession
	require.NoError(t, f.client.DB().First(&session, "id = ?", login.Session.ID).Error)
	assert.False(t, session.IsActive)
}

func TestCloseTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	_, err := f.manager.Close(ctx, CloseInput{TableID: f.table.ID, StoreID: f.store.ID})
	require.NoError(t, err)

	_, err = f.manager.Close(ctx, CloseInput{TableID: f.table.ID, StoreID: f.store.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Len(t, f.publisher.OfType(enums.StreamEventSessionEnded), 1)
}

func TestCloseChecksOwnership(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	_, err := f.manager.Close(ctx, CloseInput{TableID: f.table.ID, StoreID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.manager.Close(ctx, CloseInput{TableID: uuid.New(), StoreID: f.store.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestLoginAfterCloseStartsFreshSession(t *testing.T) {
	f := newFixture(t)
	first := f.login(t)

	_, err := f.manager.Close(context.Background(), CloseInput{TableID: f.table.ID, StoreID: f.store.ID})
	require.NoError(t, err)

	second := f.login(t)
	assert.False(t, second.Resumed)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)
}

func TestStaleSessions(t *testing.T) {
	f := newFixture(t)
	login := f.login(t)

	stale, err := f.manager.StaleSessions(context.Background(), time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, login.Session.ID, stale[0].ID)

	stale, err = f.manager.StaleSessions(context.Background(), time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestArchiveOrdersSumsTotals(t *testing.T) {
	archive := ArchiveOrders([]models.Order{
		{ID: uuid.New(), TotalAmount: 2000, Status: enums.OrderStatusWaiting},
		{ID: uuid.New(), TotalAmount: 1500, Status: enums.OrderStatusCompleted},
	})
	assert.EqualValues(t, 3500, archive.SessionTotal)
	assert.Len(t, archive.Orders, 2)
	assert.Equal(t, "완료", archive.Orders[1].Status)
}

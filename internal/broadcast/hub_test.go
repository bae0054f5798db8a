package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	"github.com/angelmondragon/tableorder-backend/pkg/metrics"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case evt, ok := <-sub.Events:
		require.True(t, ok, "subscription closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBroadcastWithoutSubscribersReportsNoListeners(t *testing.T) {
	hub := NewHub(Options{})
	ok := hub.Broadcast(context.Background(), uuid.New(), enums.StreamEventOrderCreated, OrderCreated{})
	assert.False(t, ok)
}

func TestBroadcastDeliversToEveryStoreSubscriber(t *testing.T) {
	hub := NewHub(Options{})
	storeID := uuid.New()
	a := hub.Register(storeID)
	b := hub.Register(storeID)

	payload := OrderUpdated{OrderID: uuid.New(), TableID: uuid.New(), Status: enums.OrderStatusPreparing}
	require.True(t, hub.Broadcast(context.Background(), storeID, enums.StreamEventOrderUpdated, payload))

	for _, sub := range []*Subscription{a, b} {
		evt := receive(t, sub)
		assert.Equal(t, enums.StreamEventOrderUpdated, evt.Type)
		assert.Equal(t, storeID, evt.StoreID)
		assert.Equal(t, payload, evt.Payload)
	}
}

func TestBroadcastIsolatesStores(t *testing.T) {
	hub := NewHub(Options{})
	store1 := uuid.New()
	store2 := uuid.New()
	sub1 := hub.Register(store1)
	hub.Register(store2)

	require.True(t, hub.Broadcast(context.Background(), store2, enums.StreamEventOrderDeleted, OrderDeleted{}))

	select {
	case evt := <-sub1.Events:
		t.Fatalf("store1 subscriber received %s meant for store2", evt.Type)
	default:
	}
}

func TestEventsArriveInBroadcastOrder(t *testing.T) {
	hub := NewHub(Options{Buffer: 16})
	storeID := uuid.New()
	sub := hub.Register(storeID)

	types := []enums.StreamEventType{
		enums.StreamEventOrderCreated,
		enums.StreamEventOrderUpdated,
		enums.StreamEventOrderDeleted,
		enums.StreamEventSessionEnded,
	}
	for _, et := range types {
		hub.Broadcast(context.Background(), storeID, et, nil)
	}
	for _, want := range types {
		assert.Equal(t, want, receive(t, sub).Type)
	}
}

func TestUnregisterIsIdempotentAndClosesChannel(t *testing.T) {
	hub := NewHub(Options{})
	storeID := uuid.New()
	sub := hub.Register(storeID)
	require.Equal(t, 1, hub.ConnectionCount(storeID))

	hub.Unregister(sub.ID)
	hub.Unregister(sub.ID)
	hub.Unregister(uuid.New())

	_, ok := <-sub.Events
	assert.False(t, ok, "expected channel closed after unregister")
	assert.Equal(t, 0, hub.ConnectionCount(storeID))
	assert.Equal(t, 0, hub.TotalConnections())
	assert.False(t, hub.Broadcast(context.Background(), storeID, enums.StreamEventOrderCreated, nil))
}

func TestFullSubscriberIsEvictedWithoutAffectingOthers(t *testing.T) {
	reg := prometheus.NewRegistry()
	hub := NewHub(Options{Buffer: 1, Metrics: metrics.NewStreamMetrics(reg)})
	storeID := uuid.New()
	stalled := hub.Register(storeID)
	healthy := hub.Register(storeID)

	require.True(t, hub.Broadcast(context.Background(), storeID, enums.StreamEventOrderCreated, 1))
	receive(t, healthy)

	// stalled never drains; its single slot is still full
	require.True(t, hub.Broadcast(context.Background(), storeID, enums.StreamEventOrderUpdated, 2))
	assert.Equal(t, 2, receive(t, healthy).Payload)
	assert.Equal(t, 1, hub.ConnectionCount(storeID))

	evt, ok := <-stalled.Events
	require.True(t, ok)
	assert.Equal(t, 1, evt.Payload)
	_, ok = <-stalled.Events
	assert.False(t, ok, "evicted subscriber channel must be closed")

	// a late unregister from the evicted stream's cleanup is harmless
	hub.Unregister(stalled.ID)
	assert.Equal(t, 1, hub.TotalConnections())
}

func TestConcurrentRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub(Options{Buffer: 4})
	storeID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := hub.Register(storeID)
			go func() {
				for range sub.Events {
				}
			}()
			for j := 0; j < 10; j++ {
				hub.Broadcast(context.Background(), storeID, enums.StreamEventOrderUpdated, j)
			}
			hub.Unregister(sub.ID)
			hub.Unregister(sub.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.TotalConnections())
}

func TestCloseEndsAllSubscriptions(t *testing.T) {
	hub := NewHub(Options{})
	a := hub.Register(uuid.New())
	b := hub.Register(uuid.New())

	hub.Close()

	for _, sub := range []*Subscription{a, b} {
		_, ok := <-sub.Events
		assert.False(t, ok)
	}
	assert.Equal(t, 0, hub.TotalConnections())
}

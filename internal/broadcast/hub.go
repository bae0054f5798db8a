package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/metrics"
)

// DefaultBuffer is the per-subscriber queue depth when none is configured.
const DefaultBuffer = 64

// Event is one domain change fanned out to a store's subscribers.
type Event struct {
	Type    enums.StreamEventType `json:"type"`
	StoreID uuid.UUID             `json:"store_id"`
	Payload any                   `json:"payload"`
	At      time.Time             `json:"at"`
}

// Publisher is the side of the hub that services depend on.
type Publisher interface {
	Broadcast(ctx context.Context, storeID uuid.UUID, eventType enums.StreamEventType, payload any) bool
}

// Subscription is the receive end handed to a stream. Events is closed when
// the subscriber is unregistered, including eviction for falling behind.
type Subscription struct {
	ID      uuid.UUID
	StoreID uuid.UUID
	Events  <-chan Event
}

type subscriber struct {
	id      uuid.UUID
	storeID uuid.UUID
	ch      chan Event
}

// Options configures a Hub.
type Options struct {
	Buffer  int
	Logger  *logger.Logger
	Metrics *metrics.StreamMetrics
}

// Hub is the in-process registry of live subscribers keyed by store.
// All map access and every enqueue happen under mu; enqueues never block.
type Hub struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*subscriber
	byStore map[uuid.UUID]map[uuid.UUID]*subscriber

	buffer  int
	logg    *logger.Logger
	metrics *metrics.StreamMetrics
	now     func() time.Time
}

func NewHub(opts Options) *Hub {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Hub{
		byID:    make(map[uuid.UUID]*subscriber),
		byStore: make(map[uuid.UUID]map[uuid.UUID]*subscriber),
		buffer:  buffer,
		logg:    logg,
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

// Register adds a subscriber for storeID and returns its receive end.
func (h *Hub) Register(storeID uuid.UUID) *Subscription {
	sub := &subscriber{
		id:      uuid.New(),
		storeID: storeID,
		ch:      make(chan Event, h.buffer),
	}

	h.mu.Lock()
	h.byID[sub.id] = sub
	group, ok := h.byStore[storeID]
	if !ok {
		group = make(map[uuid.UUID]*subscriber)
		h.byStore[storeID] = group
	}
	group[sub.id] = sub
	h.mu.Unlock()

	h.metrics.SubscriberAdded()
	return &Subscription{ID: sub.id, StoreID: storeID, Events: sub.ch}
}

// Unregister removes a subscriber. Unknown ids are ignored, so it is safe
// to call more than once and concurrently with Broadcast.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	removed := h.removeLocked(id)
	h.mu.Unlock()

	if removed {
		h.metrics.SubscriberRemoved()
	}
}

// Broadcast enqueues the event on every subscriber of storeID. A subscriber
// whose queue is full is evicted. Reports whether any subscriber existed.
func (h *Hub) Broadcast(ctx context.Context, storeID uuid.UUID, eventType enums.StreamEventType, payload any) bool {
	evt := Event{Type: eventType, StoreID: storeID, Payload: payload, At: h.now().UTC()}

	var evicted []uuid.UUID

	h.mu.Lock()
	group := h.byStore[storeID]
	found := len(group) > 0
	for id, sub := range group {
		select {
		case sub.ch <- evt:
		default:
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		h.removeLocked(id)
	}
	h.mu.Unlock()

	if found {
		h.metrics.EventBroadcast(eventType.String())
	}
	for _, id := range evicted {
		h.metrics.SubscriberEvicted()
		h.metrics.SubscriberRemoved()
		h.logg.Warn(h.logg.WithFields(ctx, map[string]any{
			"subscriber_id": id.String(),
			"store_id":      storeID.String(),
			"event_type":    eventType.String(),
		}), "stream.subscriber_evicted")
	}
	return found
}

// ConnectionCount returns the number of subscribers watching storeID.
func (h *Hub) ConnectionCount(storeID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byStore[storeID])
}

// TotalConnections returns the number of subscribers across all stores.
func (h *Hub) TotalConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byID)
}

// Close unregisters every subscriber so open streams end.
func (h *Hub) Close() {
	h.mu.Lock()
	ids := make([]uuid.UUID, 0, len(h.byID))
	for id := range h.byID {
		ids = append(ids, id)
	}
	for _, id := range ids {
		h.removeLocked(id)
	}
	h.mu.Unlock()

	for range ids {
		h.metrics.SubscriberRemoved()
	}
}

func (h *Hub) removeLocked(id uuid.UUID) bool {
	sub, ok := h.byID[id]
	if !ok {
		return false
	}
	delete(h.byID, id)
	if group, ok := h.byStore[sub.storeID]; ok {
		delete(group, id)
		if len(group) == 0 {
			delete(h.byStore, sub.storeID)
		}
	}
	close(sub.ch)
	return true
}

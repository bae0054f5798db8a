// Package broadcasttest provides a Publisher that records events for assertions.
package broadcasttest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
)

type Recorder struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (r *Recorder) Broadcast(_ context.Context, storeID uuid.UUID, eventType enums.StreamEventType, payload any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, broadcast.Event{Type: eventType, StoreID: storeID, Payload: payload})
	return true
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []broadcast.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]broadcast.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters recorded events by type.
func (r *Recorder) OfType(eventType enums.StreamEventType) []broadcast.Event {
	var out []broadcast.Event
	for _, event := range r.Events() {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

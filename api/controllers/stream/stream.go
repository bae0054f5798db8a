// Package stream pushes live order events to admin dashboards.
package stream

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/internal/orders"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

const (
	// DefaultHeartbeat is the idle interval before a keep-alive is written.
	DefaultHeartbeat = 30 * time.Second

	reconnectDelayMillis = 3000
)

// Hub is the subscription side of the broadcast hub.
type Hub interface {
	Register(storeID uuid.UUID) *broadcast.Subscription
	Unregister(id uuid.UUID)
}

// SnapshotProvider builds the initial board sent on connect.
type SnapshotProvider interface {
	LiveBoard(ctx context.Context, storeID uuid.UUID, filters orders.BoardFilters) ([]orders.TableBoard, error)
}

// Options configures both stream transports.
type Options struct {
	Hub            Hub
	Snapshots      SnapshotProvider
	Heartbeat      time.Duration
	AllowedOrigins []string
	Logger         *logger.Logger
}

type snapshot struct {
	Tables []orders.TableBoard `json:"tables"`
}

func (o Options) heartbeat() time.Duration {
	if o.Heartbeat <= 0 {
		return DefaultHeartbeat
	}
	return o.Heartbeat
}

func (o Options) logger() *logger.Logger {
	if o.Logger == nil {
		return logger.Nop()
	}
	return o.Logger
}

func loadSnapshot(ctx context.Context, provider SnapshotProvider, storeID uuid.UUID) (snapshot, error) {
	board, err := provider.LiveBoard(ctx, storeID, orders.BoardFilters{})
	if err != nil {
		return snapshot{}, err
	}
	if board == nil {
		board = []orders.TableBoard{}
	}
	return snapshot{Tables: board}, nil
}

// resetTimer rearms t after draining a pending fire.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/tableorder-backend/api/controllers/storecontext"
	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/sse"
)

// SSE serves one text/event-stream per admin client. It subscribes before
// loading the snapshot so no change between the two is lost, sends the
// board as an "initial" event, then relays hub events until the client
// leaves or the hub drops the subscriber.
func SSE(opts Options) http.HandlerFunc {
	logg := opts.logger()
	heartbeat := opts.heartbeat()

	return func(w http.ResponseWriter, r *http.Request) {
		if opts.Hub == nil || opts.Snapshots == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stream unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rc := http.NewResponseController(w)
		ctx := logg.WithField(r.Context(), "transport", "sse")

		sub := opts.Hub.Register(storeID)
		ctx = logg.WithField(ctx, "subscriber_id", sub.ID.String())
		reason := "client_closed"
		defer func() {
			opts.Hub.Unregister(sub.ID)
			logg.Info(logg.WithField(ctx, "reason", reason), "stream.disconnected")
		}()

		initial, err := loadSnapshot(ctx, opts.Snapshots, storeID)
		if err != nil {
			reason = "snapshot_failed"
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load live board"))
			return
		}

		if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logg.Warn(ctx, "stream.clear_deadline_failed")
		}
		sse.PrepareHeaders(w.Header())
		w.WriteHeader(http.StatusOK)

		if err := sse.WriteRetry(w, reconnectDelayMillis); err != nil {
			reason = "write_failed"
			return
		}
		if err := sse.WriteEvent(w, enums.StreamEventInitial.String(), initial); err != nil {
			reason = "write_failed"
			return
		}
		if err := rc.Flush(); err != nil {
			reason = "flush_failed"
			return
		}
		logg.Info(ctx, "stream.connected")

		timer := time.NewTimer(heartbeat)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-sub.Events:
				if !ok {
					reason = "unsubscribed"
					return
				}
				if err := sse.WriteEvent(w, evt.Type.String(), evt.Payload); err != nil {
					reason = "write_failed"
					return
				}
				if err := rc.Flush(); err != nil {
					reason = "flush_failed"
					return
				}
				resetTimer(timer, heartbeat)
			case <-timer.C:
				if err := sse.WriteComment(w, "ping"); err != nil {
					reason = "write_failed"
					return
				}
				if err := rc.Flush(); err != nil {
					reason = "flush_failed"
					return
				}
				timer.Reset(heartbeat)
			}
		}
	}
}

package stream

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/angelmondragon/tableorder-backend/api/controllers/storecontext"
	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 512
)

// wsMessage is the frame sent over the socket; the SSE event name becomes
// the type field.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WebSocket is the socket flavour of SSE for clients that prefer it. The
// client never sends data; reads only detect closure and pong frames.
func WebSocket(opts Options) http.HandlerFunc {
	logg := opts.logger()
	heartbeat := opts.heartbeat()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}

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

		ctx := logg.WithField(r.Context(), "transport", "websocket")
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

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied with an HTTP error.
			reason = "upgrade_failed"
			return
		}
		defer conn.Close()

		closed := make(chan struct{})
		conn.SetReadLimit(wsMaxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(2 * heartbeat))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * heartbeat))
		})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		write := func(msg wsMessage) error {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return conn.WriteJSON(msg)
		}

		if err := write(wsMessage{Type: enums.StreamEventInitial.String(), Data: initial}); err != nil {
			reason = "write_failed"
			return
		}
		logg.Info(ctx, "stream.connected")

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
				return
			case <-closed:
				return
			case evt, ok := <-sub.Events:
				if !ok {
					reason = "unsubscribed"
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "evicted"), time.Now().Add(wsWriteWait))
					return
				}
				if err := write(wsMessage{Type: evt.Type.String(), Data: evt.Payload}); err != nil {
					reason = "write_failed"
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					reason = "ping_failed"
					return
				}
			}
		}
	}
}

// originChecker allows requests without an Origin header (non-browser
// clients) and browser requests from a configured origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.ToLower(strings.TrimRight(origin, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}

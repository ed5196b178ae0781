package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"routineos/internal/adapters/http/middleware"
	"routineos/internal/adapters/realtime"
)

const (
	// Time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	wsPongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than wsPongWait.
	wsPingPeriod = (wsPongWait * 9) / 10

	// The browser never sends data frames; anything larger than this is dropped with the connection.
	wsMaxMessageSize = 512
)

// invalidateMessage tells the dashboard to re-fetch its stats in full.
type invalidateMessage struct {
	Type string             `json:"type"`
	Kind realtime.EventKind `json:"kind,omitempty"`
}

// handleRoutineEvents handles GET /ws/routines. Each connection subscribes for the signed-in
// user and forwards every change as an invalidation until either side goes away.
// INVARIANT: the subscription is released on every exit path
func (s *Server) handleRoutineEvents(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.Warn("realtime_upgrade_failed", "user_id", sess.AccountID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe, err := s.notifier.Subscribe(ctx, sess.AccountID)
	if err != nil {
		slog.Error("realtime_subscribe_failed", "user_id", sess.AccountID, "error", err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(wsWriteWait))
		return
	}
	defer unsubscribe()
	slog.Info("realtime_subscribe", "user_id", sess.AccountID)

	go readPump(conn, cancel)
	writePump(ctx, conn, events)
	slog.Info("realtime_unsubscribe", "user_id", sess.AccountID)
}

// readPump consumes control frames so pongs are seen, and cancels once the peer is gone.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Debug("realtime_read_error", "error", err)
			}
			return
		}
	}
}

// writePump is the connection's only writer. It returns when ctx ends, the subscription
// closes, or a write fails.
func writePump(ctx context.Context, conn *websocket.Conn, events <-chan realtime.ChangeEvent) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(invalidateMessage{Type: "invalidate", Kind: ev.Kind}); err != nil {
				slog.Debug("realtime_write_error", "user_id", ev.UserID, "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package broadcast

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"turnstile/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The browser client is served from another origin; auth happens on the
	// bearer token, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SnapshotFunc returns the full current seat state for a showtime, sent once
// on connect before any delta.
type SnapshotFunc func(ctx context.Context, showtimeID int64) ([]models.Seat, error)

// wsMessage is the wire envelope. Type is "snapshot" on connect, "delta"
// afterwards.
type wsMessage struct {
	Type       string                  `json:"type"`
	ShowtimeID int64                   `json:"showtimeId"`
	Seats      []models.SeatStatusItem `json:"seats"`
}

// ServeWS upgrades the request and streams snapshot-then-deltas for the
// showtime until the client disconnects.
func ServeWS(hub *Hub, snapshot SnapshotFunc, w http.ResponseWriter, r *http.Request, showtimeID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade seat stream", "error", err, "showtime_id", showtimeID)
		return
	}

	// Subscribe before reading the snapshot so transitions that land between
	// the two are not lost; a duplicate delta on top of the snapshot is
	// harmless (at-least-once).
	sub := hub.Subscribe(showtimeID)

	seats, err := snapshot(r.Context(), showtimeID)
	if err != nil {
		slog.Error("Failed to load seat snapshot", "error", err, "showtime_id", showtimeID)
		sub.Close()
		conn.Close()
		return
	}

	items := make([]models.SeatStatusItem, len(seats))
	for i, seat := range seats {
		items[i] = models.SeatStatusItem{SeatID: seat.ID, Status: seat.Status}
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(wsMessage{Type: "snapshot", ShowtimeID: showtimeID, Seats: items}); err != nil {
		sub.Close()
		conn.Close()
		return
	}

	go writePump(conn, sub, showtimeID)
	go readPump(conn, sub)
}

// writePump forwards deltas and pings until the subscription closes.
func writePump(conn *websocket.Conn, sub *Subscription, showtimeID int64) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case delta, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Dropped by the hub; the client reconnects and re-snapshots.
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "subscriber too slow"))
				return
			}
			msg := wsMessage{Type: "delta", ShowtimeID: delta.ShowtimeID, Seats: delta.Seats}
			if err := conn.WriteJSON(msg); err != nil {
				sub.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sub.Close()
				return
			}
		}
	}
}

// readPump discards client frames and detects disconnect promptly so the
// subscription slot is freed.
func readPump(conn *websocket.Conn, sub *Subscription) {
	defer sub.Close()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

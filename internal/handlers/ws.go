// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/middleware"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/store"
)

const (
	wsWriteTimeout = 10 * time.Second
	// outBuffer bounds queued state pushes per connection. A client slow
	// enough to fill it gets the most recent state dropped, not a stall.
	outBuffer = 16
)

// WSHandler upgrades /ws/{lobbyID}?playerId=...&name=... connections, joins
// the player into the lobby, and then bridges two flows: store change
// notifications out to the socket, and action frames from the socket into the
// dispatcher.
func WSHandler(st store.Store, dispatcher *Dispatcher, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws/"), "/")
		if lobbyID == "" {
			http.Error(w, "missing lobby id", http.StatusBadRequest)
			return
		}
		// Guests without an identity get an ephemeral one. They lose it on
		// reconnect, so clients that care about rejoin pass their own id.
		playerID := r.URL.Query().Get("playerId")
		if playerID == "" {
			playerID = uuid.NewString()
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = playerID
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		middleware.LogWebSocketEvent(logger, "WebSocket connected", r.RemoteAddr, r.URL.Path, nil)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		lob, err := dispatcher.engine.Join(ctx, lobbyID, playerID, name)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"lobby_id":  lobbyID,
				"player_id": playerID,
			}).WithError(err).Warn("join rejected")
			c.Close(websocket.StatusPolicyViolation, ErrorCode(err))
			return
		}

		out := make(chan *models.Lobby, outBuffer)
		unsubscribe := st.Subscribe(lobbyID, func(updated *models.Lobby) {
			select {
			case out <- updated:
			default:
				// Channel full: the client is behind, and the next update
				// carries the full state anyway.
			}
		})
		defer unsubscribe()

		// Seed the client with the post-join state before any pushes.
		select {
		case out <- lob:
		default:
		}

		go writePump(ctx, c, out, logger)

		readErr := readPump(ctx, c, dispatcher, lobbyID, playerID)
		cancel()

		middleware.LogWebSocketEvent(logger, "WebSocket disconnected", r.RemoteAddr, r.URL.Path, readErr)

		// The player may reconnect; Leave marks them gone and hands the win
		// to the opponent exactly once. Run detached so a slow store doesn't
		// block the handler teardown.
		go func() {
			leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer leaveCancel()
			if _, err := dispatcher.engine.Leave(leaveCtx, lobbyID, playerID); err != nil {
				logger.WithFields(logrus.Fields{
					"lobby_id":  lobbyID,
					"player_id": playerID,
				}).WithError(err).Debug("leave after disconnect")
			}
		}()

		c.Close(websocket.StatusNormalClosure, "bye")
	}
}

// writePump pushes lobby snapshots to the client until ctx is canceled.
func writePump(ctx context.Context, c *websocket.Conn, out <-chan *models.Lobby, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case lob, ok := <-out:
			if !ok {
				return
			}
			if err := writeJSON(ctx, c, StateMessage{Type: "state_update", Lobby: lob}); err != nil {
				logger.WithError(err).Debug("state push failed")
				return
			}
		}
	}
}

// readPump decodes action frames and feeds the dispatcher. Rejected actions
// are reported back to this client only; accepted ones surface to everyone
// through the store subscription.
func readPump(ctx context.Context, c *websocket.Conn, dispatcher *Dispatcher, lobbyID, playerID string) error {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if err := dispatcher.Dispatch(ctx, lobbyID, playerID, data); err != nil {
			msg := ErrorMessage{Type: "error", Code: ErrorCode(err), Message: err.Error()}
			if werr := writeJSON(ctx, c, msg); werr != nil {
				return werr
			}
		}
	}
}

func writeJSON(ctx context.Context, c *websocket.Conn, v interface{}) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Write(wctx, websocket.MessageText, data)
}

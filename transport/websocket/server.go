package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/notify"
	"github.com/rocketscienceinc/tictactoe-arena/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type gameViewer interface {
	ViewGame(ctx context.Context, gameID string) (*service.GameView, error)
}

type subscriber interface {
	Subscribe(gameID string) (<-chan notify.Update, func())
}

// Spectator - streams a game to read-only watchers: the current view first, then one message per state change.
type Spectator struct {
	logger   *slog.Logger
	games    gameViewer
	hub      subscriber
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, games gameViewer, hub subscriber) *Spectator {
	return &Spectator{
		logger: logger.With("component", "spectator"),
		games:  games,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handle - GET /ws/games/:id.
func (that *Spectator) Handle(c *gin.Context) {
	gameID := c.Param("id")
	log := that.logger.With("method", "Handle", "game_id", gameID)

	// updates published while the snapshot is read are queued, not lost
	updates, cancel := that.hub.Subscribe(gameID)
	defer cancel()

	view, err := that.games.ViewGame(c.Request.Context(), gameID)
	if err != nil {
		status := http.StatusInternalServerError
		if apperror.KindOf(err) == apperror.KindNotFound {
			status = http.StatusNotFound
		}
		c.AbortWithStatusJSON(status, gin.H{"code": apperror.KindOf(err).String(), "message": err.Error()})
		return
	}

	conn, err := that.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	log.Info("spectator connected")

	done := make(chan struct{})
	go that.readPump(conn, done)

	if err = that.writeJSON(conn, view); err != nil {
		log.Debug("failed to send snapshot", "error", err)
		return
	}

	that.writePump(conn, updates, view.Version, done)

	log.Info("spectator disconnected")
}

// readPump - discards client frames and notices when the peer goes away.
func (that *Spectator) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump - forwards updates newer than the last version sent and keeps the peer alive with pings.
func (that *Spectator) writePump(conn *websocket.Conn, updates <-chan notify.Update, sent int64, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case update, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}

			if update.Version <= sent {
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, update.Payload); err != nil {
				return
			}

			sent = update.Version
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (that *Spectator) writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	return conn.WriteJSON(v)
}

package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playbridge/playbridge/internal/hub"
)

// Gateway is the bridge surface the transport needs: a connect hook for the
// welcome handshake and a dispatcher for inbound messages.
type Gateway interface {
	OnConnect(sub hub.Subscriber)
	Dispatch(raw []byte, from hub.Subscriber)
}

// Handler upgrades HTTP requests to WebSocket subscriber connections.
type Handler struct {
	hub      *hub.Hub
	gateway  Gateway
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(h *hub.Hub, gw Gateway, logger *slog.Logger) *Handler {
	return &Handler{
		hub:     h,
		gateway: gw,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The daemon binds loopback only; subscribers are local
			// tools, not browsers on foreign origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sub := newSubscriber(conn)
	go sub.writePump()

	h.hub.Add(sub)
	h.logger.Info("subscriber connected", "remote", r.RemoteAddr, "total", h.hub.Count())

	h.gateway.OnConnect(sub)

	h.readLoop(conn, sub)

	h.hub.Remove(sub)
	h.logger.Info("subscriber disconnected", "remote", r.RemoteAddr, "remaining", h.hub.Count())
}

// readLoop feeds inbound messages to the dispatcher until the connection
// drops. Malformed payloads are the dispatcher's problem; only transport
// errors end the loop.
func (h *Handler) readLoop(conn *websocket.Conn, sub *Subscriber) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("subscriber read error", "error", err)
			}
			return
		}
		h.gateway.Dispatch(raw, sub)
	}
}

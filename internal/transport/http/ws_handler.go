package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/hub"
)

// Dispatcher consumes what a connection sends and learns when it goes away.
type Dispatcher interface {
	Dispatch(ctx context.Context, connID string, data []byte)
	Disconnect(ctx context.Context, connID string)
}

type WSHandler struct {
	hub        *hub.Hub
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, dispatcher Dispatcher) *WSHandler {
	return &WSHandler{
		hub:        h,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request, assigns a connection id and pumps messages
// between the socket and the dispatcher until either side goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn := newWSConn(uuid.NewString(), ws)
	h.hub.Attach(conn)
	h.hub.ToConnection(conn.ID(), domain.Event{
		Type:    domain.EventConnected,
		Payload: domain.ConnectedPayload{ConnectionID: conn.ID()},
	})
	slog.Info("client connected", "connectionId", conn.ID(), "remote", r.RemoteAddr)

	go conn.writePump()

	ctx := r.Context()
	conn.readPump(func(data []byte) {
		h.dispatcher.Dispatch(ctx, conn.ID(), data)
	})

	h.hub.Detach(conn.ID())
	h.dispatcher.Disconnect(context.WithoutCancel(ctx), conn.ID())
	_ = conn.Close()
	slog.Info("client disconnected", "connectionId", conn.ID())
}

package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Vegeta420Blaze/buzzer-app/internal/security"
	"github.com/Vegeta420Blaze/buzzer-app/internal/services"
)

// WSHandler upgrades connections and hands them to the hub. A fresh
// connection is unbound; its first create/join command decides which
// room it acts in and whether it is a host or a player.
type WSHandler struct {
	hub     *services.Hub
	origins *security.OriginValidator
}

func NewWSHandler(hub *services.Hub, origins *security.OriginValidator) *WSHandler {
	return &WSHandler{
		hub:     hub,
		origins: origins,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, h.origins.GetAcceptOptions())
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}

	// The connection id is the stable opaque identity for this
	// connection's lifetime; players are keyed by it.
	connID := uuid.NewString()

	client := services.NewClient(conn, h.hub, connID)
	h.hub.Register(client)
	client.Start()
}

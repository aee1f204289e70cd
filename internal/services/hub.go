package services

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Vegeta420Blaze/buzzer-app/internal/config"
	"github.com/Vegeta420Blaze/buzzer-app/internal/models"
	"github.com/Vegeta420Blaze/buzzer-app/internal/security"
)

type eventKind int

const (
	eventRegister eventKind = iota
	eventUnregister
	eventMessage
)

// hubEvent is one item on the hub's inbox. A single channel keeps
// register, message and unregister events from the same connection in
// order.
type hubEvent struct {
	kind   eventKind
	client *Client
	data   []byte
}

// Hub owns all room membership and processes every inbound command on
// one goroutine. Each command runs validate-mutate-broadcast to
// completion before the next is picked up, so room state needs no
// locks: the hub goroutine is the single writer.
type Hub struct {
	events chan *hubEvent

	// clients: connection id → client, for targeted sends.
	clients map[string]*Client

	// rooms: room code → subscribed clients.
	rooms map[string]map[string]*Client

	game    *GameService
	metrics *Metrics
	limiter *security.RateLimiter
}

func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		events:  make(chan *hubEvent, config.HubEventBufferSize),
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		metrics: metrics,
		limiter: security.NewRateLimiter(config.MaxMessagesPerSecond, config.RateLimitWindow),
	}
}

// Bind attaches the game service the hub dispatches commands to. Must
// be called before Run.
func (h *Hub) Bind(game *GameService) {
	h.game = game
}

// Run consumes the event inbox until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case ev := <-h.events:
			switch ev.kind {
			case eventRegister:
				h.registerClient(ev.client)
			case eventUnregister:
				h.unregisterClient(ev.client)
			case eventMessage:
				h.dispatch(ev.client, ev.data)
			}

		case <-ctx.Done():
			return
		}
	}
}

// Register hands a new connection to the hub.
func (h *Hub) Register(c *Client) {
	h.events <- &hubEvent{kind: eventRegister, client: c}
}

// Unregister removes a disconnected client and cleans up its game state.
func (h *Hub) Unregister(c *Client) {
	h.events <- &hubEvent{kind: eventUnregister, client: c}
}

// Enqueue queues an inbound message for processing.
func (h *Hub) Enqueue(c *Client, data []byte) {
	h.events <- &hubEvent{kind: eventMessage, client: c, data: data}
}

func (h *Hub) registerClient(c *Client) {
	h.clients[c.connID] = c
	h.metrics.IncrementConnections()

	log.Debug().Str("conn_id", c.connID).Int("active", len(h.clients)).Msg("Connection registered")
}

func (h *Hub) unregisterClient(c *Client) {
	if _, ok := h.clients[c.connID]; !ok {
		return
	}

	// Cleans up room membership and, via Unsubscribe, the rooms map.
	h.game.HandleDisconnect(c.connID)

	delete(h.clients, c.connID)
	h.limiter.Remove(c.conn)
	h.metrics.DecrementConnections()
	c.Close()

	log.Debug().Str("conn_id", c.connID).Int("active", len(h.clients)).Msg("Connection unregistered")
}

// dispatch parses and validates one inbound message, then routes it to
// the game service. A bad message earns the sender a notice and affects
// nothing else.
func (h *Hub) dispatch(c *Client, data []byte) {
	var env models.ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.ToConn(c.connID, noticeMsg(models.SeverityError, "malformed message"))
		return
	}

	if !security.IsValidMessageType(env.Type) {
		log.Warn().Str("conn_id", c.connID).Str("type", env.Type).Msg("Unknown message type")
		h.ToConn(c.connID, noticeMsg(models.SeverityError, "unknown message type"))
		return
	}

	if err := security.ValidateMessagePayload(env.Type, env.Payload); err != nil {
		h.ToConn(c.connID, noticeMsg(models.SeverityError, err.Error()))
		return
	}

	switch env.Type {
	case models.MsgTypeCreateRoom:
		h.game.HandleCreateRoom(c.connID)

	case models.MsgTypeJoinHost:
		var join models.JoinPayload
		_ = json.Unmarshal(env.Payload, &join)
		h.game.HandleJoinHost(c.connID, join.Code)

	case models.MsgTypeJoinRoom:
		var join models.JoinPayload
		_ = json.Unmarshal(env.Payload, &join)
		h.game.HandleJoinPlayer(c.connID, join.Code, join.Name)

	case models.MsgTypeStartRound:
		h.game.HandleStartRound(c.connID)

	case models.MsgTypeEndRound:
		h.game.HandleEndRound(c.connID)

	case models.MsgTypeAwardPartial:
		h.game.HandleAwardPartial(c.connID)

	case models.MsgTypeAwardFull:
		h.game.HandleAwardFull(c.connID)

	case models.MsgTypeSkip:
		h.game.HandleSkip(c.connID)

	case models.MsgTypeDQNextRound:
		h.game.HandleDisqualifyNextRound(c.connID)

	case models.MsgTypeUpdateConfig:
		var cfg models.UpdateConfigPayload
		_ = json.Unmarshal(env.Payload, &cfg)
		h.game.HandleUpdateConfig(c.connID, *cfg.PointsPerPart)

	case models.MsgTypeNewGame:
		h.game.HandleNewGame(c.connID)

	case models.MsgTypeBuzz:
		h.game.HandleBuzz(c.connID)
	}
}

// Subscribe adds a connection to a room's broadcast set. Called from
// the game service on the hub goroutine.
func (h *Hub) Subscribe(connID, code string) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]*Client)
	}
	h.rooms[code][connID] = c
}

// Unsubscribe removes a connection from a room's broadcast set.
func (h *Hub) Unsubscribe(connID, code string) {
	if members, ok := h.rooms[code]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// ToRoom fans a message out to every subscriber of a room. Delivery is
// fire-and-forget: the payload is queued on each client's send buffer
// and the write pumps take it from there.
func (h *Hub) ToRoom(code string, msg *models.WSMessage) {
	members := h.rooms[code]
	if len(members) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room_code", code).Msg("Failed to marshal broadcast")
		h.metrics.IncrementBroadcastErrors()
		return
	}

	for _, c := range members {
		c.Send(data)
	}
}

// ToConn sends a message to a single connection.
func (h *Hub) ToConn(connID string, msg *models.WSMessage) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("conn_id", connID).Msg("Failed to marshal message")
		h.metrics.IncrementBroadcastErrors()
		return
	}
	c.Send(data)
}

// GetMetrics exposes the metrics snapshot for the HTTP handlers.
func (h *Hub) GetMetrics() MetricsSnapshot {
	return h.metrics.Snapshot()
}

func noticeMsg(severity, message string) *models.WSMessage {
	return &models.WSMessage{
		Type:    models.MsgTypeNotice,
		Payload: models.NoticePayload{Severity: severity, Message: message},
	}
}

func jsonNotice(severity, message string) ([]byte, error) {
	return json.Marshal(noticeMsg(severity, message))
}

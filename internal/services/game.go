package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Vegeta420Blaze/buzzer-app/internal/config"
	"github.com/Vegeta420Blaze/buzzer-app/internal/models"
	"github.com/Vegeta420Blaze/buzzer-app/internal/security"
)

// Outbound is the delivery side of the hub as the game logic sees it.
// ToRoom fans out to every subscriber of a room; ToConn addresses a
// single connection. Both are fire-and-forget: they enqueue onto client
// send buffers and never block a mutation on network I/O.
type Outbound interface {
	Subscribe(connID, code string)
	Unsubscribe(connID, code string)
	ToRoom(code string, msg *models.WSMessage)
	ToConn(connID string, msg *models.WSMessage)
}

type role int

const (
	roleHost role = iota + 1
	rolePlayer
)

// binding ties a connection to the room it acts in and the role it
// plays there.
type binding struct {
	code string
	role role
}

// GameService applies commands to room state. Every method here is
// invoked from the hub's single Run goroutine, so each command runs
// read-modify-broadcast to completion with no locking. Validation comes
// first in every handler; a rejected command mutates nothing.
type GameService struct {
	registry *RoomRegistry
	out      Outbound
	metrics  *Metrics

	// bindings maps connection id → room/role, set by the first
	// create/join command on a connection.
	bindings map[string]binding

	publicURL string

	// now is replaceable in tests.
	now func() time.Time
}

func NewGameService(registry *RoomRegistry, out Outbound, metrics *Metrics, publicURL string) *GameService {
	return &GameService{
		registry:  registry,
		out:       out,
		metrics:   metrics,
		bindings:  make(map[string]binding),
		publicURL: publicURL,
		now:       time.Now,
	}
}

// HandleCreateRoom creates a room and binds the connection as its first
// host.
func (g *GameService) HandleCreateRoom(connID string) {
	if _, bound := g.bindings[connID]; bound {
		g.notice(connID, models.SeverityError, "already in a room")
		return
	}

	room, err := g.registry.CreateRoom()
	if err != nil {
		g.notice(connID, models.SeverityError, err.Error())
		return
	}

	room.HostConns[connID] = true
	g.bindings[connID] = binding{code: room.Code, role: roleHost}
	g.out.Subscribe(connID, room.Code)

	g.out.ToConn(connID, &models.WSMessage{
		Type: models.MsgTypeRoomCreated,
		Payload: models.RoomCreatedPayload{
			Code:    room.Code,
			JoinURL: g.joinURL(room.Code),
		},
	})
	g.broadcastState(room)
}

// HandleJoinHost binds the connection as an additional host of an
// existing room.
func (g *GameService) HandleJoinHost(connID, code string) {
	if _, bound := g.bindings[connID]; bound {
		g.notice(connID, models.SeverityError, "already in a room")
		return
	}

	room, ok := g.lookup(connID, code)
	if !ok {
		return
	}

	room.HostConns[connID] = true
	g.bindings[connID] = binding{code: room.Code, role: roleHost}
	g.out.Subscribe(connID, room.Code)

	log.Info().Str("room_code", room.Code).Str("conn_id", connID).Msg("Host joined")
	g.broadcastState(room)
}

// HandleJoinPlayer binds the connection as a player. The display name is
// sanitized here; a fresh Player entry is created even if the same
// person was in the room before disconnecting, so the score starts at
// zero again.
func (g *GameService) HandleJoinPlayer(connID, code, name string) {
	if _, bound := g.bindings[connID]; bound {
		g.notice(connID, models.SeverityError, "already in a room")
		return
	}

	cleanName, err := security.ValidatePlayerName(name)
	if err != nil {
		g.notice(connID, models.SeverityError, err.Error())
		return
	}

	room, ok := g.lookup(connID, code)
	if !ok {
		return
	}

	room.Players[connID] = models.NewPlayer(connID, cleanName)
	g.bindings[connID] = binding{code: room.Code, role: rolePlayer}
	g.out.Subscribe(connID, room.Code)

	log.Info().Str("room_code", room.Code).Str("conn_id", connID).Str("player_name", cleanName).Msg("Player joined")
	g.broadcastState(room)
}

// HandleStartRound begins a new round. Allowed from Idle or Active; a
// restart mid-round just starts the next round. Each player's pending
// disqualification is consumed here: dqNextRound becomes dqThisRound
// for exactly one round.
func (g *GameService) HandleStartRound(connID string) {
	room, ok := g.hostRoom(connID)
	if !ok {
		return
	}

	room.RoundActive = true
	room.RoundNumber++
	room.ClearQueue()
	room.LastBuzzAt = make(map[string]time.Time)
	for _, player := range room.Players {
		player.DQThisRound = player.DQNextRound
		player.DQNextRound = false
	}
	g.metrics.IncrementRoundsStarted()

	log.Info().Str("room_code", room.Code).Int("round", room.RoundNumber).Msg("Round started")
	g.out.ToRoom(room.Code, &models.WSMessage{
		Type:    models.MsgTypeRoundStarted,
		Payload: models.RoundPayload{Code: room.Code, RoundNumber: room.RoundNumber},
	})
	g.broadcastState(room)
}

// HandleEndRound closes the current round. Current-round DQ flags are
// cleared; pending ones carry forward to the next start.
func (g *GameService) HandleEndRound(connID string) {
	room, ok := g.hostRoom(connID)
	if !ok {
		return
	}

	if !room.RoundActive {
		g.notice(connID, models.SeverityWarning, "no round in progress")
		return
	}

	room.RoundActive = false
	room.ClearQueue()
	for _, player := range room.Players {
		player.DQThisRound = false
	}

	log.Info().Str("room_code", room.Code).Int("round", room.RoundNumber).Msg("Round ended")
	g.out.ToRoom(room.Code, &models.WSMessage{
		Type:    models.MsgTypeRoundEnded,
		Payload: models.RoundPayload{Code: room.Code, RoundNumber: room.RoundNumber},
	})
	g.broadcastState(room)
}

// HandleAwardPartial pays the queue head for a partially correct answer.
// The head stays queued so a multi-part answer can keep earning.
func (g *GameService) HandleAwardPartial(connID string) {
	room, ok := g.hostRoom(connID)
	if !ok {
		return
	}

	head, ok := g.headPlayer(connID, room)
	if !ok {
		return
	}

	head.Score += room.Config.PointsPerPart
	g.broadcastState(room)
}

// HandleAwardFull pays the queue head double for a fully correct answer
// and removes them from the queue.
func (g *GameService) HandleAwardFull(connID string) {
	room, ok := g.hostRoom(connID)
	if !ok {
		return
	}

	head, ok := g.headPlayer(connID, room)
	if !ok {
		return
	}

	head.Score += 2 * room.Config.PointsPerPart
	room.RemoveFromQueue(head.ID)
	g.broadcastState(room)
}

// HandleSkip removes the queue head without any score change.
func (g *GameService) HandleSkip(connID string) {
	room, ok := g.hostRoom(connID)
	if !ok {
		return
	}

	head, ok := g.headPlayer(connID, room)
	if !ok {
		return
	}

	room.RemoveFromQueue(head.ID)
	g.broadcastState(room)
}

// HandleDisqualifyNextRound removes the queue head and flags them to sit
// out the next round. The penalty takes effect at the next round start,
// not immediately.
func (g *GameService) HandleDisqualifyNextRound(connID string) {
	room, ok := g.hostRoom(connID)
	if !ok {
		return
	}

	head, ok := g.headPlayer(connID, room)
	if !ok {
		return
	}

	room.RemoveFromQueue(head.ID)
	head.DQNextRound = true

	log.Info().Str("room_code", room.Code).Str("player_id", head.ID).Msg("Player disqualified for next round")
	g.broadcastState(room)
}

// HandleUpdateConfig validates and applies a new points-per-part value.
// Out-of-range values are rejected and leave the config untouched.
func (g *GameService) HandleUpdateConfig(connID string, pointsPerPart int) {
	room, ok := g.hostRoom(connID)
	if !ok {
		return
	}

	if !models.ValidPointsPerPart(pointsPerPart) {
		g.notice(connID, models.SeverityError, fmt.Sprintf("pointsPerPart must be between %d and %d", config.MinPointsPerPart, config.MaxPointsPerPart))
		return
	}

	room.Config.PointsPerPart = pointsPerPart

	g.out.ToRoom(room.Code, &models.WSMessage{
		Type:    models.MsgTypeConfigChanged,
		Payload: models.ConfigChangedPayload{Code: room.Code, Config: room.Config},
	})
	g.broadcastState(room)
}

// HandleNewGame resets the room to a fresh game: round zero, empty
// queue, all scores and DQ flags cleared. The room code, membership and
// configuration survive.
func (g *GameService) HandleNewGame(connID string) {
	room, ok := g.hostRoom(connID)
	if !ok {
		return
	}

	room.RoundActive = false
	room.RoundNumber = 0
	room.ClearQueue()
	room.LastBuzzAt = make(map[string]time.Time)
	for _, player := range room.Players {
		player.Score = 0
		player.DQThisRound = false
		player.DQNextRound = false
	}

	log.Info().Str("room_code", room.Code).Msg("New game")
	g.broadcastState(room)
}

// HandleBuzz runs a player's buzz through admission. Acceptance changes
// room state and broadcasts; rejections go to the buzzing player only,
// since nothing the room can observe has changed.
func (g *GameService) HandleBuzz(connID string) {
	b, ok := g.bindings[connID]
	if !ok || b.role != rolePlayer {
		g.notice(connID, models.SeverityError, "join a room as a player first")
		return
	}

	room, err := g.registry.Get(b.code)
	if err != nil {
		g.notice(connID, models.SeverityError, "room no longer exists")
		return
	}

	outcome := AttemptBuzz(room, connID, g.now())
	switch outcome.Verdict {
	case BuzzAccepted:
		g.metrics.IncrementBuzzesAccepted()
		g.broadcastState(room)

	case BuzzDuplicate:
		// Already queued; nothing to report.

	case BuzzOnCooldown:
		g.metrics.IncrementBuzzesRejected()
		g.out.ToConn(connID, &models.WSMessage{
			Type:    models.MsgTypeCooldown,
			Payload: models.CooldownPayload{RemainingMs: outcome.Remaining.Milliseconds()},
		})

	case BuzzRoundInactive:
		g.metrics.IncrementBuzzesRejected()
		g.notice(connID, models.SeverityWarning, "no round in progress")

	case BuzzDisqualified:
		g.metrics.IncrementBuzzesRejected()
		g.notice(connID, models.SeverityWarning, "you are disqualified for this round")

	case BuzzUnknownPlayer:
		g.metrics.IncrementBuzzesRejected()
		g.notice(connID, models.SeverityError, "you are not a member of this room")
	}
}

// HandleDisconnect unbinds a connection and cleans up whatever it left
// behind: host slot, player entry, queue position. The room is deleted
// as soon as its last host and last player are gone.
func (g *GameService) HandleDisconnect(connID string) {
	b, ok := g.bindings[connID]
	if !ok {
		return
	}
	delete(g.bindings, connID)
	g.out.Unsubscribe(connID, b.code)

	room, err := g.registry.Get(b.code)
	if err != nil {
		return
	}

	delete(room.HostConns, connID)
	if _, isPlayer := room.Players[connID]; isPlayer {
		delete(room.Players, connID)
		room.RemoveFromQueue(connID)
		delete(room.LastBuzzAt, connID)
	}

	log.Info().Str("room_code", room.Code).Str("conn_id", connID).Msg("Connection left room")

	if room.Empty() {
		g.registry.Delete(room.Code)
		return
	}
	g.broadcastState(room)
}

// broadcastState is the single post-mutation hook: every command that
// changed room state ends by pushing a full snapshot to all subscribers.
func (g *GameService) broadcastState(room *models.Room) {
	g.out.ToRoom(room.Code, &models.WSMessage{
		Type:    models.MsgTypeRoomState,
		Payload: BuildSnapshot(room),
	})
}

func (g *GameService) notice(connID, severity, message string) {
	g.out.ToConn(connID, &models.WSMessage{
		Type:    models.MsgTypeNotice,
		Payload: models.NoticePayload{Severity: severity, Message: message},
	})
}

// lookup validates a code's shape and resolves it, reporting failures to
// the caller only.
func (g *GameService) lookup(connID, code string) (*models.Room, bool) {
	clean, err := security.ValidateRoomCode(code)
	if err != nil {
		g.notice(connID, models.SeverityError, err.Error())
		return nil, false
	}

	room, err := g.registry.Get(clean)
	if err != nil {
		g.notice(connID, models.SeverityError, fmt.Sprintf("room %s not found", clean))
		return nil, false
	}
	return room, true
}

// hostRoom resolves the room a host connection is bound to.
func (g *GameService) hostRoom(connID string) (*models.Room, bool) {
	b, ok := g.bindings[connID]
	if !ok || b.role != roleHost {
		g.notice(connID, models.SeverityError, "host actions require hosting a room")
		return nil, false
	}

	room, err := g.registry.Get(b.code)
	if err != nil {
		g.notice(connID, models.SeverityError, "room no longer exists")
		return nil, false
	}
	return room, true
}

// headPlayer resolves the queue head to a live player. Host adjudication
// actions are no-ops on an empty queue.
func (g *GameService) headPlayer(connID string, room *models.Room) (*models.Player, bool) {
	headID, ok := room.QueueHead()
	if !ok {
		g.notice(connID, models.SeverityInfo, "the buzz queue is empty")
		return nil, false
	}

	player, ok := room.Players[headID]
	if !ok {
		// Stale entry from a player who vanished mid-adjudication.
		room.RemoveFromQueue(headID)
		g.broadcastState(room)
		return nil, false
	}
	return player, true
}

func (g *GameService) joinURL(code string) string {
	if g.publicURL == "" {
		return ""
	}
	return g.publicURL + "/?code=" + code
}

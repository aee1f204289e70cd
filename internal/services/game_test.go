package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vegeta420Blaze/buzzer-app/internal/models"
	"github.com/Vegeta420Blaze/buzzer-app/internal/services"
)

// fakeOutbound records everything the game service emits, standing in
// for the hub's delivery side.
type fakeOutbound struct {
	sent []sentMsg
	subs map[string]string
}

type sentMsg struct {
	room string
	conn string
	msg  *models.WSMessage
}

func newFakeOutbound() *fakeOutbound {
	return &fakeOutbound{subs: make(map[string]string)}
}

func (f *fakeOutbound) Subscribe(connID, code string)   { f.subs[connID] = code }
func (f *fakeOutbound) Unsubscribe(connID, code string) { delete(f.subs, connID) }

func (f *fakeOutbound) ToRoom(code string, msg *models.WSMessage) {
	f.sent = append(f.sent, sentMsg{room: code, msg: msg})
}

func (f *fakeOutbound) ToConn(connID string, msg *models.WSMessage) {
	f.sent = append(f.sent, sentMsg{conn: connID, msg: msg})
}

func (f *fakeOutbound) lastOfType(typ string) (sentMsg, bool) {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].msg.Type == typ {
			return f.sent[i], true
		}
	}
	return sentMsg{}, false
}

func (f *fakeOutbound) lastSnapshot(t *testing.T) models.RoomSnapshot {
	t.Helper()
	m, ok := f.lastOfType(models.MsgTypeRoomState)
	require.True(t, ok, "no snapshot was broadcast")
	snap, ok := m.msg.Payload.(models.RoomSnapshot)
	require.True(t, ok, "snapshot payload has wrong type")
	return snap
}

func (f *fakeOutbound) reset() { f.sent = nil }

func newGameFixture() (*services.GameService, *fakeOutbound, *services.RoomRegistry) {
	registry := services.NewRoomRegistry(services.NewMetrics())
	out := newFakeOutbound()
	game := services.NewGameService(registry, out, services.NewMetrics(), "https://buzz.example")
	return game, out, registry
}

func createRoom(t *testing.T, game *services.GameService, out *fakeOutbound, registry *services.RoomRegistry, hostID string) *models.Room {
	t.Helper()
	game.HandleCreateRoom(hostID)

	m, ok := out.lastOfType(models.MsgTypeRoomCreated)
	require.True(t, ok, "no room_created message")
	payload, ok := m.msg.Payload.(models.RoomCreatedPayload)
	require.True(t, ok)
	require.Equal(t, hostID, m.conn, "room_created must go to the creator only")

	room, err := registry.Get(payload.Code)
	require.NoError(t, err)
	return room
}

func TestCreateRoomBindsHost(t *testing.T) {
	game, out, registry := newGameFixture()

	room := createRoom(t, game, out, registry, "host-1")

	assert.True(t, room.HostConns["host-1"])
	assert.Equal(t, room.Code, out.subs["host-1"])

	m, _ := out.lastOfType(models.MsgTypeRoomCreated)
	payload := m.msg.Payload.(models.RoomCreatedPayload)
	assert.Equal(t, "https://buzz.example/?code="+room.Code, payload.JoinURL)

	snap := out.lastSnapshot(t)
	assert.Equal(t, room.Code, snap.Code)
	assert.False(t, snap.RoundActive)
}

func TestJoinPlayerCreatesEntryAndBroadcasts(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")

	game.HandleJoinPlayer("conn-a", room.Code, "  Alice  ")

	player, ok := room.Players["conn-a"]
	require.True(t, ok)
	assert.Equal(t, "Alice", player.Name)
	assert.Equal(t, 0, player.Score)

	snap := out.lastSnapshot(t)
	require.Len(t, snap.Leaderboard, 1)
	assert.Equal(t, "Alice", snap.Leaderboard[0].Name)
}

func TestJoinPlayerEmptyNameDefaults(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")

	game.HandleJoinPlayer("conn-a", room.Code, "")

	assert.Equal(t, "Player", room.Players["conn-a"].Name)
}

func TestJoinUnknownRoomReportsNotFound(t *testing.T) {
	game, out, _ := newGameFixture()

	game.HandleJoinPlayer("conn-a", "ZZZZZ2", "Alice")

	m, ok := out.lastOfType(models.MsgTypeNotice)
	require.True(t, ok)
	assert.Equal(t, "conn-a", m.conn)
	notice := m.msg.Payload.(models.NoticePayload)
	assert.Equal(t, models.SeverityError, notice.Severity)
	assert.Contains(t, notice.Message, "not found")
}

func TestJoinRoomCodeIsCaseInsensitive(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")

	game.HandleJoinHost("host-2", "  "+room.Code+" ")
	assert.True(t, room.HostConns["host-2"], "trimmed upper-case code should resolve")
	assert.Len(t, room.HostConns, 2, "multiple simultaneous hosts are allowed")
}

func TestStartRoundPropagatesDQFlags(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleJoinPlayer("conn-b", room.Code, "Bob")
	room.Players["conn-a"].DQNextRound = true

	game.HandleStartRound("host-1")

	assert.True(t, room.RoundActive)
	assert.Equal(t, 1, room.RoundNumber)
	assert.True(t, room.Players["conn-a"].DQThisRound)
	assert.False(t, room.Players["conn-a"].DQNextRound, "the penalty is consumed at round start")
	assert.False(t, room.Players["conn-b"].DQThisRound)

	m, ok := out.lastOfType(models.MsgTypeRoundStarted)
	require.True(t, ok)
	assert.Equal(t, room.Code, m.room)
	assert.Equal(t, 1, m.msg.Payload.(models.RoundPayload).RoundNumber)

	snap := out.lastSnapshot(t)
	assert.True(t, snap.RoundActive)
	assert.Equal(t, 1, snap.RoundNumber)
}

func TestStartRoundClearsQueueAndCooldowns(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")
	require.Equal(t, []string{"conn-a"}, room.Queue)
	require.NotEmpty(t, room.LastBuzzAt)

	game.HandleStartRound("host-1")

	assert.Equal(t, 2, room.RoundNumber)
	assert.Empty(t, room.Queue)
	assert.Empty(t, room.LastBuzzAt)
}

func TestEndRoundClearsThisRoundButKeepsNextRound(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleStartRound("host-1")
	room.Players["conn-a"].DQThisRound = false
	room.Players["conn-a"].DQNextRound = true // issued mid-round

	game.HandleEndRound("host-1")

	assert.False(t, room.RoundActive)
	assert.Equal(t, 1, room.RoundNumber, "ending a round never changes the round number")
	assert.False(t, room.Players["conn-a"].DQThisRound)
	assert.True(t, room.Players["conn-a"].DQNextRound, "pending penalties carry forward")

	_, ok := out.lastOfType(models.MsgTypeRoundEnded)
	assert.True(t, ok)
}

func TestEndRoundWhileIdleIsRejected(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	out.reset()

	game.HandleEndRound("host-1")

	assert.False(t, room.RoundActive)
	_, ok := out.lastOfType(models.MsgTypeRoundEnded)
	assert.False(t, ok)
	m, ok := out.lastOfType(models.MsgTypeNotice)
	require.True(t, ok)
	assert.Equal(t, "host-1", m.conn)
}

func TestAwardPartialKeepsHeadQueued(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleJoinPlayer("conn-b", room.Code, "Bob")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")
	game.HandleBuzz("conn-b")

	game.HandleAwardPartial("host-1")

	assert.Equal(t, 5, room.Players["conn-a"].Score)
	assert.Equal(t, 0, room.Players["conn-b"].Score)
	assert.Equal(t, []string{"conn-a", "conn-b"}, room.Queue, "partial award supports multi-part answers")

	game.HandleAwardPartial("host-1")
	assert.Equal(t, 10, room.Players["conn-a"].Score)
}

func TestAwardFullPaysDoubleAndPopsHead(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleJoinPlayer("conn-b", room.Code, "Bob")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")
	game.HandleBuzz("conn-b")

	game.HandleAwardFull("host-1")

	assert.Equal(t, 10, room.Players["conn-a"].Score)
	assert.Equal(t, []string{"conn-b"}, room.Queue)

	snap := out.lastSnapshot(t)
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, "Bob", snap.Queue[0].Name)
}

func TestSkipRemovesHeadWithoutScoring(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")

	game.HandleSkip("host-1")

	assert.Equal(t, 0, room.Players["conn-a"].Score)
	assert.Empty(t, room.Queue)
}

func TestAdjudicationOnEmptyQueueIsNoOp(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleStartRound("host-1")
	out.reset()

	game.HandleAwardPartial("host-1")
	game.HandleAwardFull("host-1")
	game.HandleSkip("host-1")

	assert.Equal(t, 0, room.Players["conn-a"].Score)
	_, broadcast := out.lastOfType(models.MsgTypeRoomState)
	assert.False(t, broadcast, "a no-op must not broadcast")
}

func TestDisqualifyNextRoundFlow(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")

	game.HandleDisqualifyNextRound("host-1")

	// Effective next round, not immediately
	assert.Empty(t, room.Queue)
	assert.True(t, room.Players["conn-a"].DQNextRound)
	assert.False(t, room.Players["conn-a"].DQThisRound)

	game.HandleStartRound("host-1")
	assert.True(t, room.Players["conn-a"].DQThisRound)

	out.reset()
	game.HandleBuzz("conn-a")
	assert.Empty(t, room.Queue, "disqualified player cannot buzz")
	m, ok := out.lastOfType(models.MsgTypeNotice)
	require.True(t, ok)
	assert.Equal(t, "conn-a", m.conn)
}

func TestUpdateConfigBounds(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")

	tests := []struct {
		name  string
		value int
		want  int // config after the call
		valid bool
	}{
		{"negative rejected", -1, 5, false},
		{"above max rejected", 101, 5, false},
		{"zero accepted", 0, 0, true},
		{"max accepted", 100, 100, true},
		{"typical accepted", 10, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.reset()
			prev := room.Config.PointsPerPart
			game.HandleUpdateConfig("host-1", tt.value)

			assert.Equal(t, tt.want, room.Config.PointsPerPart)
			_, changed := out.lastOfType(models.MsgTypeConfigChanged)
			assert.Equal(t, tt.valid, changed)
			if !tt.valid {
				assert.Equal(t, prev, room.Config.PointsPerPart, "rejected update must leave config untouched")
			}
		})
	}
}

func TestConfiguredPointsAffectAwards(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleUpdateConfig("host-1", 7)
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")

	game.HandleAwardFull("host-1")

	assert.Equal(t, 14, room.Players["conn-a"].Score)
}

func TestNewGameResets(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleUpdateConfig("host-1", 8)
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")
	game.HandleAwardPartial("host-1")
	room.Players["conn-a"].DQNextRound = true

	game.HandleNewGame("host-1")

	assert.False(t, room.RoundActive)
	assert.Equal(t, 0, room.RoundNumber)
	assert.Empty(t, room.Queue)
	assert.Equal(t, 0, room.Players["conn-a"].Score)
	assert.False(t, room.Players["conn-a"].DQNextRound)
	assert.False(t, room.Players["conn-a"].DQThisRound)
	assert.Equal(t, 8, room.Config.PointsPerPart, "configuration survives a new game")
	assert.Contains(t, room.Players, "conn-a", "membership survives a new game")
}

func TestBuzzWhileIdleRejected(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	out.reset()

	game.HandleBuzz("conn-a")

	assert.Empty(t, room.Queue)
	m, ok := out.lastOfType(models.MsgTypeNotice)
	require.True(t, ok)
	assert.Equal(t, "conn-a", m.conn, "buzz rejections go to the buzzer only")
	_, broadcast := out.lastOfType(models.MsgTypeRoomState)
	assert.False(t, broadcast)
}

func TestRapidRebuzzHitsCooldown(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")
	game.HandleSkip("host-1")
	out.reset()

	// Immediately after the accepted buzz: still inside the window
	game.HandleBuzz("conn-a")

	assert.Empty(t, room.Queue)
	m, ok := out.lastOfType(models.MsgTypeCooldown)
	require.True(t, ok)
	assert.Equal(t, "conn-a", m.conn)
	payload := m.msg.Payload.(models.CooldownPayload)
	assert.Greater(t, payload.RemainingMs, int64(0))
	assert.LessOrEqual(t, payload.RemainingMs, int64(300))
}

func TestDuplicateBuzzEmitsNothing(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")

	// Cooldown is checked against the last accepted buzz; force the
	// window open so the duplicate check is what fires.
	room.LastBuzzAt["conn-a"] = room.LastBuzzAt["conn-a"].Add(-time.Second)
	out.reset()

	game.HandleBuzz("conn-a")

	assert.Equal(t, []string{"conn-a"}, room.Queue)
	assert.Empty(t, out.sent, "a duplicate buzz is silently ignored")
}

func TestHostActionsRequireHostBinding(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	out.reset()

	game.HandleStartRound("conn-a")

	assert.False(t, room.RoundActive)
	m, ok := out.lastOfType(models.MsgTypeNotice)
	require.True(t, ok)
	assert.Equal(t, "conn-a", m.conn)
}

func TestBuzzRequiresPlayerBinding(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleStartRound("host-1")
	out.reset()

	game.HandleBuzz("host-1")

	assert.Empty(t, room.Queue)
	_, ok := out.lastOfType(models.MsgTypeNotice)
	assert.True(t, ok)
}

func TestDisconnectRemovesPlayerEverywhere(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleJoinPlayer("conn-b", room.Code, "Bob")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")
	game.HandleBuzz("conn-b")

	game.HandleDisconnect("conn-a")

	assert.NotContains(t, room.Players, "conn-a")
	assert.Equal(t, []string{"conn-b"}, room.Queue)
	assert.NotContains(t, room.LastBuzzAt, "conn-a")
	assert.NotContains(t, out.subs, "conn-a")

	snap := out.lastSnapshot(t)
	require.Len(t, snap.Leaderboard, 1)
	assert.Equal(t, "Bob", snap.Leaderboard[0].Name)
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, "Bob", snap.Queue[0].Name)
}

func TestRoomDeletedWhenLastMemberLeaves(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")

	game.HandleDisconnect("conn-a")
	assert.Equal(t, 1, registry.Count(), "room lives while a host remains")

	game.HandleDisconnect("host-1")
	assert.Equal(t, 0, registry.Count())
	_, err := registry.Get(room.Code)
	assert.ErrorIs(t, err, services.ErrRoomNotFound)
}

func TestRejoinAfterDisconnectResetsScore(t *testing.T) {
	game, out, registry := newGameFixture()
	room := createRoom(t, game, out, registry, "host-1")
	game.HandleJoinPlayer("conn-a", room.Code, "Alice")
	game.HandleStartRound("host-1")
	game.HandleBuzz("conn-a")
	game.HandleAwardFull("host-1")
	require.Equal(t, 10, room.Players["conn-a"].Score)

	game.HandleDisconnect("conn-a")
	game.HandleJoinPlayer("conn-a2", room.Code, "Alice")

	assert.Equal(t, 0, room.Players["conn-a2"].Score, "a rejoin is a fresh player")
}

package models

import "encoding/json"

// WSMessage is the outbound envelope sent to clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ClientEnvelope is the inbound envelope; the payload stays raw until the
// message type is known.
type ClientEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client → Server message types
const (
	MsgTypeCreateRoom   = "create_room"
	MsgTypeJoinHost     = "join_host"
	MsgTypeJoinRoom     = "join_room"
	MsgTypeStartRound   = "start_round"
	MsgTypeEndRound     = "end_round"
	MsgTypeAwardPartial = "award_partial"
	MsgTypeAwardFull    = "award_full"
	MsgTypeSkip         = "skip"
	MsgTypeDQNextRound  = "dq_next_round"
	MsgTypeUpdateConfig = "update_config"
	MsgTypeNewGame      = "new_game"
	MsgTypeBuzz         = "buzz"
)

// Server → Client message types
const (
	MsgTypeRoomCreated   = "room_created" // To the creating host only
	MsgTypeRoomState     = "room_state"   // Full snapshot, sent after every mutation
	MsgTypeRoundStarted  = "round_started"
	MsgTypeRoundEnded    = "round_ended"
	MsgTypeConfigChanged = "config_changed"
	MsgTypeCooldown      = "cooldown" // To the rejected buzzer only
	MsgTypeNotice        = "notice"
)

// Inbound payloads

type JoinPayload struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

type UpdateConfigPayload struct {
	PointsPerPart *int `json:"pointsPerPart"`
}

// Outbound payloads

type RoomCreatedPayload struct {
	Code    string `json:"code"`
	JoinURL string `json:"joinUrl,omitempty"`
}

type RoundPayload struct {
	Code        string `json:"code"`
	RoundNumber int    `json:"roundNumber"`
}

type ConfigChangedPayload struct {
	Code   string     `json:"code"`
	Config RoomConfig `json:"config"`
}

type CooldownPayload struct {
	RemainingMs int64 `json:"remainingMs"`
}

// Notice severities
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

type NoticePayload struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

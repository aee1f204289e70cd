package config

import "time"

// WebSocket connection limits and constraints
const (
	// Connection limits
	MaxConnectionsPerRoom = 50
	MaxRoomsPerInstance   = 1000
	MaxTotalConnections   = 10000

	// Rate limiting
	MaxMessagesPerSecond = 10
	RateLimitWindow      = time.Second

	// Timeouts
	ConnectionTimeout = 5 * time.Minute
	WriteTimeout      = 10 * time.Second
	ReadTimeout       = 60 * time.Second
	PingInterval      = 30 * time.Second
	PongTimeout       = 90 * time.Second // 3x ping interval for network delay tolerance

	// Channel buffers
	ClientSendBufferSize = 256
	HubEventBufferSize   = 256
)

// Game rules and room-code generation
const (
	// Minimum interval between a player's accepted buzzes. Enforced
	// server-side regardless of any client throttling.
	BuzzCooldown = 300 * time.Millisecond

	// Room codes exclude visually confusable characters (0/O, 1/I).
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodeLength   = 6
	MaxCodeAttempts  = 10

	// Player names
	MaxPlayerNameLength = 32
	DefaultPlayerName   = "Player"

	// Points awarded for a partial answer; a full answer pays double.
	DefaultPointsPerPart = 5
	MinPointsPerPart     = 0
	MaxPointsPerPart     = 100
)

package security

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Vegeta420Blaze/buzzer-app/internal/models"
)

// WebSocket message type validation
var validMessageTypes = map[string]bool{
	models.MsgTypeCreateRoom:   true,
	models.MsgTypeJoinHost:     true,
	models.MsgTypeJoinRoom:     true,
	models.MsgTypeStartRound:   true,
	models.MsgTypeEndRound:     true,
	models.MsgTypeAwardPartial: true,
	models.MsgTypeAwardFull:    true,
	models.MsgTypeSkip:         true,
	models.MsgTypeDQNextRound:  true,
	models.MsgTypeUpdateConfig: true,
	models.MsgTypeNewGame:      true,
	models.MsgTypeBuzz:         true,
}

// IsValidMessageType checks if a WebSocket message type is valid
func IsValidMessageType(msgType string) bool {
	return validMessageTypes[msgType]
}

// ValidateMessagePayload checks that a message carries the fields its
// type requires, before the payload is decoded into a typed struct.
func ValidateMessagePayload(msgType string, payload json.RawMessage) error {
	switch msgType {
	case models.MsgTypeJoinHost, models.MsgTypeJoinRoom:
		var join models.JoinPayload
		if err := json.Unmarshal(payload, &join); err != nil {
			return fmt.Errorf("invalid payload format")
		}
		if join.Code == "" {
			return fmt.Errorf("%s payload must have a 'code' field", msgType)
		}

	case models.MsgTypeUpdateConfig:
		var cfg models.UpdateConfigPayload
		if err := json.Unmarshal(payload, &cfg); err != nil {
			return fmt.Errorf("config update payload must have an integer 'pointsPerPart' field")
		}
		if cfg.PointsPerPart == nil {
			return fmt.Errorf("config update payload must have a 'pointsPerPart' field")
		}
	}

	return nil
}

// RateLimiter provides per-connection rate limiting for WebSocket messages
type RateLimiter struct {
	mu        sync.Mutex
	tokens    map[*websocket.Conn]int
	lastReset time.Time
	maxTokens int
	window    time.Duration
}

// NewRateLimiter creates a new rate limiter
// maxTokens: maximum messages per window
// window: time window for rate limiting (e.g., 1 second)
func NewRateLimiter(maxTokens int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:    make(map[*websocket.Conn]int),
		lastReset: time.Now(),
		maxTokens: maxTokens,
		window:    window,
	}
}

// Allow checks if a connection is allowed to send a message
// Returns true if allowed, false if rate limit exceeded
func (rl *RateLimiter) Allow(conn *websocket.Conn) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Reset tokens if window has elapsed
	if time.Since(rl.lastReset) > rl.window {
		rl.tokens = make(map[*websocket.Conn]int)
		rl.lastReset = time.Now()
	}

	rl.tokens[conn]++
	return rl.tokens[conn] <= rl.maxTokens
}

// Remove cleans up rate limiter state for a disconnected connection
func (rl *RateLimiter) Remove(conn *websocket.Conn) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.tokens, conn)
}

// OriginValidator validates WebSocket connection origins
type OriginValidator struct {
	allowedPatterns []string
}

// NewOriginValidator creates a new origin validator
func NewOriginValidator(patterns []string) *OriginValidator {
	return &OriginValidator{
		allowedPatterns: patterns,
	}
}

// GetAcceptOptions returns websocket.AcceptOptions with origin patterns
func (ov *OriginValidator) GetAcceptOptions() *websocket.AcceptOptions {
	return &websocket.AcceptOptions{
		OriginPatterns: ov.allowedPatterns,
	}
}

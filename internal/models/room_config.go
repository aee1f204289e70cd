package models

import "github.com/Vegeta420Blaze/buzzer-app/internal/config"

// RoomConfig holds host-tunable settings for a room
type RoomConfig struct {
	// PointsPerPart is awarded for a partial answer; a full answer pays
	// 2x. Valid range is [MinPointsPerPart, MaxPointsPerPart].
	PointsPerPart int `json:"pointsPerPart"`
}

// DefaultRoomConfig returns the configuration new rooms start with
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		PointsPerPart: config.DefaultPointsPerPart,
	}
}

// ValidPointsPerPart reports whether a proposed value is in range.
func ValidPointsPerPart(v int) bool {
	return v >= config.MinPointsPerPart && v <= config.MaxPointsPerPart
}

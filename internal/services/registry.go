package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Vegeta420Blaze/buzzer-app/internal/config"
	"github.com/Vegeta420Blaze/buzzer-app/internal/models"
)

// RoomRegistry owns the code → room map. The lock only guards the map
// itself; room contents are mutated exclusively on the hub goroutine.
type RoomRegistry struct {
	mu      sync.RWMutex
	rooms   map[string]*models.Room
	metrics *Metrics
}

func NewRoomRegistry(metrics *Metrics) *RoomRegistry {
	return &RoomRegistry{
		rooms:   make(map[string]*models.Room),
		metrics: metrics,
	}
}

// CreateRoom generates a unique code and registers a fresh room under it.
func (r *RoomRegistry) CreateRoom() (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.rooms) >= config.MaxRoomsPerInstance {
		return nil, ErrRoomLimitReached
	}

	for attempt := 0; attempt < config.MaxCodeAttempts; attempt++ {
		code, err := generateRoomCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, taken := r.rooms[code]; taken {
			continue
		}

		room := models.NewRoom(code)
		r.rooms[code] = room
		r.metrics.IncrementRooms()

		log.Info().Str("room_code", code).Int("active_rooms", len(r.rooms)).Msg("Room created")
		return room, nil
	}

	return nil, ErrCodeSpaceExhausted
}

// Get looks up a room by code.
func (r *RoomRegistry) Get(code string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Delete removes a room. Deleting an unknown code is a no-op.
func (r *RoomRegistry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[code]; !ok {
		return
	}
	delete(r.rooms, code)
	r.metrics.DecrementRooms()

	log.Info().Str("room_code", code).Int("active_rooms", len(r.rooms)).Msg("Room deleted")
}

// Count returns the number of live rooms.
func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// generateRoomCode draws a fixed-length code from the unambiguous
// alphabet using crypto/rand.
func generateRoomCode() (string, error) {
	code := make([]byte, config.RoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(config.RoomCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = config.RoomCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

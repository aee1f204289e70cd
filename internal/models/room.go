package models

import (
	"time"
)

// Room is the authoritative, in-memory state of one game session. All
// mutation happens on the hub goroutine; the struct itself carries no
// locking.
type Room struct {
	Code        string
	RoundActive bool
	RoundNumber int

	// Queue is the FIFO of buzz arrivals for the current round. It only
	// ever holds ids present in Players, never the same id twice.
	Queue []string

	// Players is keyed by connection id; an entry lives from join to
	// disconnect.
	Players map[string]*Player

	// HostConns is the set of connection ids acting as host. Zero or more
	// simultaneous hosts are allowed.
	HostConns map[string]bool

	// LastBuzzAt records each player's last accepted buzz, for cooldown
	// enforcement. Reset wholesale at round start.
	LastBuzzAt map[string]time.Time

	Config    RoomConfig
	CreatedAt time.Time
}

// NewRoom creates an idle room with default configuration.
func NewRoom(code string) *Room {
	return &Room{
		Code:       code,
		Players:    make(map[string]*Player),
		HostConns:  make(map[string]bool),
		LastBuzzAt: make(map[string]time.Time),
		Config:     DefaultRoomConfig(),
		CreatedAt:  time.Now(),
	}
}

// InQueue reports whether the player has already buzzed this round.
func (r *Room) InQueue(playerID string) bool {
	for _, id := range r.Queue {
		if id == playerID {
			return true
		}
	}
	return false
}

// Enqueue appends a player to the buzz queue. Duplicate ids are ignored.
func (r *Room) Enqueue(playerID string) {
	if r.InQueue(playerID) {
		return
	}
	r.Queue = append(r.Queue, playerID)
}

// QueueHead returns the first queued player id, if any.
func (r *Room) QueueHead() (string, bool) {
	if len(r.Queue) == 0 {
		return "", false
	}
	return r.Queue[0], true
}

// RemoveFromQueue drops a player from the queue, preserving order.
func (r *Room) RemoveFromQueue(playerID string) {
	for i, id := range r.Queue {
		if id == playerID {
			r.Queue = append(r.Queue[:i], r.Queue[i+1:]...)
			return
		}
	}
}

// ClearQueue empties the buzz queue.
func (r *Room) ClearQueue() {
	r.Queue = r.Queue[:0]
}

// Empty reports whether the room has no hosts and no players left.
func (r *Room) Empty() bool {
	return len(r.HostConns) == 0 && len(r.Players) == 0
}

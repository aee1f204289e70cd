package models

import "time"

// Player is one contestant in a room, keyed by connection id. The entry
// lives for exactly one connection: rejoining after a disconnect creates
// a fresh player with a zero score.
type Player struct {
	ID    string
	Name  string
	Score int

	// DQNextRound marks a disqualification issued this round; it is
	// consumed at the next round start.
	DQNextRound bool

	// DQThisRound blocks buzzing for the current round. Set only by the
	// round-start transition, cleared at round end.
	DQThisRound bool

	JoinedAt time.Time
}

func NewPlayer(id, name string) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		JoinedAt: time.Now(),
	}
}

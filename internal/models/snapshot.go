package models

// RoomSnapshot is the public view of a room, sent whole to every
// subscriber after each mutation. Clients replace their state with it;
// no differential updates exist.
type RoomSnapshot struct {
	Code        string             `json:"code"`
	RoundActive bool               `json:"roundActive"`
	RoundNumber int                `json:"roundNumber"`
	Queue       []QueueEntry       `json:"queue"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Config      RoomConfig         `json:"config"`
}

// QueueEntry is one buzzed player, in arrival order.
type QueueEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

// LeaderboardEntry is one row of the score table, sorted by score
// descending then name ascending.
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

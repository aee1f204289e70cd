package services

import (
	"sort"

	"github.com/Vegeta420Blaze/buzzer-app/internal/models"
)

// BuildSnapshot derives the public view of a room. The queue is filtered
// to players still present, preserving arrival order; the leaderboard is
// sorted by score descending, then name ascending, then id, so every
// subscriber sees the same ordering.
func BuildSnapshot(room *models.Room) models.RoomSnapshot {
	queue := make([]models.QueueEntry, 0, len(room.Queue))
	for _, id := range room.Queue {
		player, ok := room.Players[id]
		if !ok {
			continue
		}
		queue = append(queue, models.QueueEntry{
			PlayerID: player.ID,
			Name:     player.Name,
		})
	}

	leaderboard := make([]models.LeaderboardEntry, 0, len(room.Players))
	for _, player := range room.Players {
		leaderboard = append(leaderboard, models.LeaderboardEntry{
			PlayerID: player.ID,
			Name:     player.Name,
			Score:    player.Score,
		})
	}
	sort.Slice(leaderboard, func(i, j int) bool {
		if leaderboard[i].Score != leaderboard[j].Score {
			return leaderboard[i].Score > leaderboard[j].Score
		}
		if leaderboard[i].Name != leaderboard[j].Name {
			return leaderboard[i].Name < leaderboard[j].Name
		}
		return leaderboard[i].PlayerID < leaderboard[j].PlayerID
	})

	return models.RoomSnapshot{
		Code:        room.Code,
		RoundActive: room.RoundActive,
		RoundNumber: room.RoundNumber,
		Queue:       queue,
		Leaderboard: leaderboard,
		Config:      room.Config,
	}
}

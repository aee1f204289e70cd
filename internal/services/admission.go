package services

import (
	"time"

	"github.com/Vegeta420Blaze/buzzer-app/internal/config"
	"github.com/Vegeta420Blaze/buzzer-app/internal/models"
)

// BuzzVerdict classifies the outcome of a buzz attempt.
type BuzzVerdict int

const (
	// BuzzAccepted: the player was appended to the queue.
	BuzzAccepted BuzzVerdict = iota
	// BuzzRoundInactive: no round is running.
	BuzzRoundInactive
	// BuzzUnknownPlayer: the id is not a member of the room.
	BuzzUnknownPlayer
	// BuzzDisqualified: the player sits out the current round.
	BuzzDisqualified
	// BuzzOnCooldown: too soon after the player's last accepted buzz.
	BuzzOnCooldown
	// BuzzDuplicate: the player is already queued. Not an error; the
	// attempt is silently ignored.
	BuzzDuplicate
)

// BuzzOutcome is the result of one buzz attempt. Remaining is only set
// for BuzzOnCooldown.
type BuzzOutcome struct {
	Verdict   BuzzVerdict
	Remaining time.Duration
}

// AttemptBuzz runs the admission checks in order and, on acceptance,
// appends the player to the queue tail and stamps their buzz time. The
// check-then-append sequence is atomic because all callers run on the
// hub goroutine.
func AttemptBuzz(room *models.Room, playerID string, now time.Time) BuzzOutcome {
	if !room.RoundActive {
		return BuzzOutcome{Verdict: BuzzRoundInactive}
	}

	player, ok := room.Players[playerID]
	if !ok {
		return BuzzOutcome{Verdict: BuzzUnknownPlayer}
	}

	if player.DQThisRound {
		return BuzzOutcome{Verdict: BuzzDisqualified}
	}

	if last, ok := room.LastBuzzAt[playerID]; ok {
		if elapsed := now.Sub(last); elapsed < config.BuzzCooldown {
			return BuzzOutcome{
				Verdict:   BuzzOnCooldown,
				Remaining: config.BuzzCooldown - elapsed,
			}
		}
	}

	if room.InQueue(playerID) {
		return BuzzOutcome{Verdict: BuzzDuplicate}
	}

	room.Enqueue(playerID)
	room.LastBuzzAt[playerID] = now
	return BuzzOutcome{Verdict: BuzzAccepted}
}

package services

import "errors"

var (
	// ErrRoomNotFound is returned for lookups of codes no live room
	// holds. Recoverable; reported to the caller only.
	ErrRoomNotFound = errors.New("room not found")

	// ErrCodeSpaceExhausted is returned when code generation keeps
	// colliding, which only happens near instance capacity.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")

	// ErrRoomLimitReached is returned when the instance already holds
	// the maximum number of rooms.
	ErrRoomLimitReached = errors.New("room limit reached")
)

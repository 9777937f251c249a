package errors

import "github.com/cockroachdb/errors"

var (
	ErrNotFound = errors.New("room lock not found")

	// ErrLockConflict means an unexpired lock already covers part of the
	// requested stay for the same room.
	ErrLockConflict = errors.New("room lock overlaps an active lock")

	ErrInvalidRange = errors.New("check-out must be after check-in")

	ErrMissingReference = errors.New("payment reference is required")

	ErrMissingRoomKey = errors.New("room key is required")
)

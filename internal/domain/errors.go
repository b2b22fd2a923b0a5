package domain

import "errors"

// Validation errors: returned to the caller with no state mutated.
var (
	ErrAlreadyQueued   = errors.New("player already in queue")
	ErrNotQueued       = errors.New("player not in queue")
	ErrQueueFull       = errors.New("queue is full")
	ErrQueueEmpty      = errors.New("queue is empty")
	ErrAlreadyInMatch  = errors.New("player already in an active match")
	ErrNotParticipant  = errors.New("player is not a participant of this match")
	ErrAlreadyReported = errors.New("match result already reported")
	ErrNoClaim         = errors.New("player does not hold the reporting claim")
	ErrNoChange        = errors.New("result unchanged")
	ErrInvalidWinner   = errors.New("invalid result winner")
	ErrUnavailable     = errors.New("service is not available")
	ErrMatchNotFound   = errors.New("match not found")
	ErrPlayerNotFound  = errors.New("player not found")
)

// IsValidation reports whether err is one of the caller-fault errors, as
// opposed to a persistence or collaborator failure.
func IsValidation(err error) bool {
	for _, v := range []error{
		ErrAlreadyQueued, ErrNotQueued, ErrQueueFull, ErrQueueEmpty,
		ErrAlreadyInMatch, ErrNotParticipant, ErrAlreadyReported,
		ErrNoClaim, ErrNoChange, ErrInvalidWinner, ErrUnavailable,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

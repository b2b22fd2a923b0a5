// Package queue holds the ordered waiting list. The type is not safe for
// concurrent use on its own: the matchmaking service guards it inside its
// single critical section.
package queue

import (
	"time"

	"github.com/l8smu/hsmrankedbot/internal/domain"
)

type Queue struct {
	entries  []domain.QueueEntry
	capacity int
}

func New(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

func (q *Queue) Len() int      { return len(q.entries) }
func (q *Queue) Full() bool    { return len(q.entries) >= q.capacity }
func (q *Queue) Capacity() int { return q.capacity }

func (q *Queue) Contains(playerID string) bool {
	return q.indexOf(playerID) >= 0
}

func (q *Queue) indexOf(playerID string) int {
	for i := range q.entries {
		if q.entries[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

// Join appends the player and returns their 1-based position.
func (q *Queue) Join(playerID string, now time.Time) (int, error) {
	if q.Contains(playerID) {
		return 0, domain.ErrAlreadyQueued
	}
	if q.Full() {
		return 0, domain.ErrQueueFull
	}
	q.entries = append(q.entries, domain.QueueEntry{
		PlayerID:     playerID,
		JoinedAt:     now,
		LastActivity: now,
	})
	return len(q.entries), nil
}

func (q *Queue) Leave(playerID string) error {
	i := q.indexOf(playerID)
	if i < 0 {
		return domain.ErrNotQueued
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return nil
}

// Touch refreshes the player's activity stamp; a no-op for non-members.
func (q *Queue) Touch(playerID string, now time.Time) {
	if i := q.indexOf(playerID); i >= 0 {
		q.entries[i].LastActivity = now
	}
}

// EvictStale removes every member idle longer than timeout and returns the
// evicted player ids.
func (q *Queue) EvictStale(now time.Time, timeout time.Duration) []string {
	var evicted []string
	kept := q.entries[:0]
	for _, e := range q.entries {
		if now.Sub(e.LastActivity) > timeout {
			evicted = append(evicted, e.PlayerID)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return evicted
}

// PopFront removes and returns the head of the queue.
func (q *Queue) PopFront() (string, error) {
	if len(q.entries) == 0 {
		return "", domain.ErrQueueEmpty
	}
	id := q.entries[0].PlayerID
	q.entries = q.entries[1:]
	return id, nil
}

// Clear empties the queue and returns how many members were removed.
func (q *Queue) Clear() int {
	n := len(q.entries)
	q.entries = nil
	return n
}

// Snapshot returns the ordered membership as a copy.
func (q *Queue) Snapshot() []domain.QueueEntry {
	out := make([]domain.QueueEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

package queue

import (
	"testing"
	"time"

	"github.com/l8smu/hsmrankedbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAssignsPositionsInOrder(t *testing.T) {
	q := New(4)
	now := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		pos, err := q.Join(id, now)
		require.NoError(t, err)
		assert.Equal(t, i+1, pos)
	}
	assert.Equal(t, 3, q.Len())
	assert.False(t, q.Full())
}

func TestJoinRejectsDuplicate(t *testing.T) {
	q := New(4)
	now := time.Now()

	_, err := q.Join("a", now)
	require.NoError(t, err)

	_, err = q.Join("a", now)
	assert.ErrorIs(t, err, domain.ErrAlreadyQueued)
	assert.Equal(t, 1, q.Len())
}

func TestJoinRejectsWhenFull(t *testing.T) {
	q := New(2)
	now := time.Now()

	_, err := q.Join("a", now)
	require.NoError(t, err)
	_, err = q.Join("b", now)
	require.NoError(t, err)
	assert.True(t, q.Full())

	_, err = q.Join("c", now)
	assert.ErrorIs(t, err, domain.ErrQueueFull)
}

func TestLeaveCompactsOrder(t *testing.T) {
	q := New(4)
	now := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		_, err := q.Join(id, now)
		require.NoError(t, err)
	}

	require.NoError(t, q.Leave("b"))

	snap := q.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].PlayerID)
	assert.Equal(t, "c", snap[1].PlayerID)

	assert.ErrorIs(t, q.Leave("b"), domain.ErrNotQueued)
}

func TestEvictStaleKeepsActiveMembers(t *testing.T) {
	q := New(4)
	base := time.Now()

	_, err := q.Join("idle", base)
	require.NoError(t, err)
	_, err = q.Join("active", base)
	require.NoError(t, err)

	later := base.Add(10 * time.Minute)
	q.Touch("active", later)

	evicted := q.EvictStale(later, 5*time.Minute)
	assert.Equal(t, []string{"idle"}, evicted)
	assert.True(t, q.Contains("active"))
	assert.False(t, q.Contains("idle"))
}

func TestTouchUnknownPlayerIsNoop(t *testing.T) {
	q := New(4)
	q.Touch("ghost", time.Now())
	assert.Equal(t, 0, q.Len())
}

func TestPopFront(t *testing.T) {
	q := New(4)
	now := time.Now()
	_, err := q.Join("a", now)
	require.NoError(t, err)
	_, err = q.Join("b", now)
	require.NoError(t, err)

	id, err := q.PopFront()
	require.NoError(t, err)
	assert.Equal(t, "a", id)
	assert.Equal(t, 1, q.Len())

	_, err = q.PopFront()
	require.NoError(t, err)
	_, err = q.PopFront()
	assert.ErrorIs(t, err, domain.ErrQueueEmpty)
}

func TestClearReportsRemovedCount(t *testing.T) {
	q := New(4)
	now := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		_, err := q.Join(id, now)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, q.Clear())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Clear())
}

func TestSnapshotIsACopy(t *testing.T) {
	q := New(4)
	now := time.Now()
	_, err := q.Join("a", now)
	require.NoError(t, err)

	snap := q.Snapshot()
	snap[0].PlayerID = "mutated"
	assert.True(t, q.Contains("a"))
}

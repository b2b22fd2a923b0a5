package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/l8smu/hsmrankedbot/internal/constants"
	"github.com/l8smu/hsmrankedbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinReportsPositions(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		res, err := env.mm.Join(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Position)
		assert.Nil(t, res.Match)
	}

	status := env.mm.QueueStatus()
	assert.Equal(t, 3, status.Size)
	assert.Equal(t, 4, status.Capacity)
	require.Len(t, status.Members, 3)
	assert.Equal(t, "a", status.Members[0].PlayerID)
	assert.Equal(t, 1, status.Members[0].Position)
}

func TestJoinRejectsDuplicate(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	_, err := env.mm.Join(ctx, "a")
	require.NoError(t, err)
	_, err = env.mm.Join(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrAlreadyQueued)
}

func TestFourthJoinCreatesBalancedMatch(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	env.store.seed(
		domain.Player{ID: "p1", Rating: 1800, PlacementMatches: 5},
		domain.Player{ID: "p2", Rating: 1600, PlacementMatches: 5},
		domain.Player{ID: "p3", Rating: 1500, PlacementMatches: 5},
		domain.Player{ID: "p4", Rating: 1000, PlacementMatches: 5},
	)

	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := env.mm.Join(ctx, id)
		require.NoError(t, err)
	}
	res, err := env.mm.Join(ctx, "p4")
	require.NoError(t, err)

	require.NotNil(t, res.Match)
	assert.Equal(t, [2]string{"p1", "p4"}, res.Match.Team1)
	assert.Equal(t, [2]string{"p2", "p3"}, res.Match.Team2)
	assert.Equal(t, "HSM1", res.Match.Name)
	assert.Equal(t, domain.WinnerPending, res.Match.Winner)

	assert.Equal(t, 0, env.mm.QueueStatus().Size)

	active, err := env.mm.Match(ctx, res.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Match.ID, active.ID)
}

func TestJoinRejectsActiveMatchParticipant(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := env.mm.Join(ctx, id)
		require.NoError(t, err)
	}

	_, err := env.mm.Join(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrAlreadyInMatch)
}

func TestJoinBlockedWhileUnavailable(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	env.mm.SetAvailability(domain.ModeMaintenance)
	_, err := env.mm.Join(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, domain.ModeMaintenance, env.mm.Availability())

	env.mm.SetAvailability(domain.ModeAvailable)
	_, err = env.mm.Join(ctx, "a")
	assert.NoError(t, err)
}

func TestFailedMatchCreationKeepsOthersQueued(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := env.mm.Join(ctx, id)
		require.NoError(t, err)
	}

	env.store.insertMatchErr = fmt.Errorf("disk full")
	_, err := env.mm.Join(ctx, "d")
	require.Error(t, err)

	status := env.mm.QueueStatus()
	require.Equal(t, 3, status.Size)
	assert.Equal(t, "a", status.Members[0].PlayerID)
	assert.Equal(t, "c", status.Members[2].PlayerID)

	// The failed joiner can retry once the store recovers.
	env.store.insertMatchErr = nil
	res, err := env.mm.Join(ctx, "d")
	require.NoError(t, err)
	assert.NotNil(t, res.Match)
}

func TestLeaveQueue(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	_, err := env.mm.Join(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, env.mm.Leave(ctx, "a"))
	assert.ErrorIs(t, env.mm.Leave(ctx, "a"), domain.ErrNotQueued)
}

func TestPopFrontNotifiesPlayer(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	_, err := env.mm.Join(ctx, "a")
	require.NoError(t, err)
	_, err = env.mm.Join(ctx, "b")
	require.NoError(t, err)

	id, err := env.mm.PopFront(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", id)
	assert.Equal(t, 1, env.mm.QueueStatus().Size)

	env.drain()
	assert.NotEmpty(t, env.notifier.sentTo("a"))
}

func TestClearQueue(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	_, err := env.mm.Join(ctx, "a")
	require.NoError(t, err)
	_, err = env.mm.Join(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, 2, env.mm.ClearQueue(ctx))
	assert.Equal(t, 0, env.mm.QueueStatus().Size)
	assert.Equal(t, 0, env.mm.ClearQueue(ctx))
}

func TestEvictStaleNotifiesEvicted(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	_, err := env.mm.Join(ctx, "idle")
	require.NoError(t, err)
	_, err = env.mm.Join(ctx, "fresh")
	require.NoError(t, err)

	// No time has passed yet, so a pass with the real clock evicts nobody.
	assert.Empty(t, env.mm.EvictStale(time.Now(), 5*time.Minute))
	assert.Equal(t, 2, env.mm.QueueStatus().Size)

	evicted := env.mm.EvictStale(time.Now().Add(10*time.Minute), 5*time.Minute)
	assert.ElementsMatch(t, []string{"idle", "fresh"}, evicted)
	assert.Equal(t, 0, env.mm.QueueStatus().Size)

	env.drain()
	assert.NotEmpty(t, env.notifier.sentTo("idle"))
	assert.NotEmpty(t, env.notifier.sentTo("fresh"))
}

func TestVenueFallbackOnProvisioningFailure(t *testing.T) {
	env := newTestEnv(testOptions())
	env.provisioner.failCreate = true
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := env.mm.Join(ctx, id)
		require.NoError(t, err)
	}

	// The match exists despite the venue failure.
	match, err := env.mm.Match(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.WinnerPending, match.Winner)
	env.drain()
}

func TestBroadcastTiersCoversWholeLadder(t *testing.T) {
	env := newTestEnv(testOptions())

	// More ranked players than one broadcast page holds.
	total := constants.TierBroadcastPageSize + 100
	for i := 0; i < total; i++ {
		env.store.seed(domain.Player{
			ID:               fmt.Sprintf("p%04d", i),
			Rating:           900 + i%800,
			PlacementMatches: 5,
		})
	}

	require.NoError(t, env.mm.BroadcastTiers(context.Background()))
	assert.Equal(t, total, env.applier.count())
}

func TestMatchLookupFallsBackToStore(t *testing.T) {
	env := newTestEnv(testOptions())
	ctx := context.Background()

	_, err := env.mm.Match(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

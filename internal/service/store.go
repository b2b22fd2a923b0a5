package service

import (
	"context"

	"github.com/l8smu/hsmrankedbot/internal/domain"
)

// PlayerCounts summarizes the player base for the leaderboard footer.
type PlayerCounts struct {
	Total       int
	Ranked      int
	InPlacement int
}

// Store is the persistence collaborator. Each call is atomic on its own;
// multi-write operations run inside Transact, whose callback receives a
// transaction-bound Store.
type Store interface {
	// GetPlayer returns the stored record, lazily creating one with the
	// default rating on first reference.
	GetPlayer(ctx context.Context, playerID string) (*domain.Player, error)
	UpsertPlayer(ctx context.Context, p *domain.Player) error
	ListRankedPlayers(ctx context.Context, limit, offset int) ([]domain.Player, error)
	CountPlayers(ctx context.Context) (PlayerCounts, error)
	ResetAllPlayers(ctx context.Context) error

	// InsertMatch assigns the next sequential id and display name on m.
	InsertMatch(ctx context.Context, m *domain.Match) error
	UpdateMatch(ctx context.Context, m *domain.Match) error
	GetMatch(ctx context.Context, matchID int64) (*domain.Match, error)
	ListRecentCompleted(ctx context.Context, limit int) ([]domain.Match, error)

	InsertRatingChanges(ctx context.Context, changes []domain.RatingChange) error
	// ActiveRatingChanges returns the recorded deltas of the match's current
	// (non-reverted) application, empty if none.
	ActiveRatingChanges(ctx context.Context, matchID int64) ([]domain.RatingChange, error)
	// ListRatingChanges returns every application ever recorded for the match,
	// reverted rows included, oldest first. A non-empty result means the match
	// already advanced its participants' placement counters once.
	ListRatingChanges(ctx context.Context, matchID int64) ([]domain.RatingChange, error)
	MarkRatingChangesReverted(ctx context.Context, matchID int64) error

	Transact(ctx context.Context, fn func(Store) error) error
}

package service

import (
	"context"
	"fmt"

	"github.com/l8smu/hsmrankedbot/internal/constants"
	"github.com/l8smu/hsmrankedbot/internal/domain"
	"github.com/l8smu/hsmrankedbot/internal/rank"
	"github.com/l8smu/hsmrankedbot/internal/rating"

	"github.com/rs/zerolog"
)

// PlayerService answers profile and leaderboard queries. It is read-mostly
// and independent of the matchmaking critical section.
type PlayerService struct {
	store    Store
	engine   *rating.Engine
	assigner *rank.Assigner
	logger   zerolog.Logger
}

func NewPlayerService(store Store, engine *rating.Engine, assigner *rank.Assigner, logger zerolog.Logger) *PlayerService {
	return &PlayerService{store: store, engine: engine, assigner: assigner, logger: logger}
}

// Profile is a player's public card.
type Profile struct {
	Player           domain.Player `json:"player"`
	Tier             *domain.Tier  `json:"tier,omitempty"`
	NextTier         *domain.Tier  `json:"next_tier,omitempty"`
	PointsToNextTier int           `json:"points_to_next_tier,omitempty"`
	WinsToNextTier   int           `json:"wins_to_next_tier,omitempty"`
	PlacementsLeft   int           `json:"placements_left,omitempty"`
}

func (s *PlayerService) GetProfile(ctx context.Context, playerID string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	p, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	profile := &Profile{Player: *p}
	cfg := s.engine.Config()

	if tier, ranked := s.assigner.TierForPlayer(p); ranked {
		profile.Tier = &tier
		if next, ok := rank.NextTier(p.Rating); ok {
			needed := next.Min - p.Rating
			profile.NextTier = &next
			profile.PointsToNextTier = needed
			profile.WinsToNextTier = max(1, (needed+cfg.RankedWin-1)/cfg.RankedWin)
		}
	} else {
		profile.PlacementsLeft = cfg.PlacementWindow - p.PlacementMatches
	}

	return profile, nil
}

// LeaderboardEntry is one row of the ranked ladder.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Rating   int    `json:"rating"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	TierName string `json:"tier_name"`
}

type LeaderboardPage struct {
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Entries  []LeaderboardEntry `json:"entries"`
	Counts   PlayerCounts       `json:"counts"`
}

// GetLeaderboardPage lists ranked players (placements complete) by rating
// descending. Pages are 1-based.
func (s *PlayerService) GetLeaderboardPage(ctx context.Context, page, pageSize int) (*LeaderboardPage, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = constants.DefaultLeaderboardPageSize
	}
	if pageSize > constants.MaxLeaderboardPageSize {
		pageSize = constants.MaxLeaderboardPageSize
	}
	offset := (page - 1) * pageSize

	players, err := s.store.ListRankedPlayers(ctx, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranked players: %w", err)
	}
	counts, err := s.store.CountPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}

	result := &LeaderboardPage{
		Page:     page,
		PageSize: pageSize,
		Entries:  make([]LeaderboardEntry, 0, len(players)),
		Counts:   counts,
	}
	for i, p := range players {
		result.Entries = append(result.Entries, LeaderboardEntry{
			Rank:     offset + i + 1,
			PlayerID: p.ID,
			Rating:   p.Rating,
			Wins:     p.Wins,
			Losses:   p.Losses,
			TierName: rank.TierFor(p.Rating).Name,
		})
	}
	return result, nil
}

// ResetAllPlayers puts every player back on the default rating with zeroed
// counters. This is the only way player records are ever wiped.
func (s *PlayerService) ResetAllPlayers(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.store.ResetAllPlayers(ctx); err != nil {
		return fmt.Errorf("failed to reset players: %w", err)
	}
	s.logger.Warn().Msg("all player records reset to defaults")
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/l8smu/hsmrankedbot/internal/constants"
	"github.com/l8smu/hsmrankedbot/internal/domain"
	"github.com/l8smu/hsmrankedbot/internal/service"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

func (r *PlayerRepository) WithTx(tx *sql.Tx) *PlayerRepository {
	return &PlayerRepository{db: tx, logger: r.logger}
}

const playerColumns = "player_id, rating, wins, losses, placement_matches, created_at, updated_at"

func scanPlayer(row *sql.Row) (*domain.Player, error) {
	p := &domain.Player{}
	err := row.Scan(&p.ID, &p.Rating, &p.Wins, &p.Losses, &p.PlacementMatches, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the stored record, lazily inserting a default one on first
// reference. Players are never deleted.
func (r *PlayerRepository) Get(ctx context.Context, playerID string) (*domain.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE player_id = ?", playerID))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get player %s: %w", playerID, err)
	}

	now := time.Now()
	p = &domain.Player{
		ID:        playerID,
		Rating:    constants.DefaultRating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO players (player_id, rating, wins, losses, placement_matches, created_at, updated_at)
		VALUES (?, ?, 0, 0, 0, ?, ?)
		ON CONFLICT (player_id) DO NOTHING
	`, p.ID, p.Rating, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", playerID, err)
	}

	r.logger.Debug().Str("player_id", playerID).Int("rating", p.Rating).Msg("player created with default rating")
	return p, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, p *domain.Player) error {
	p.UpdatedAt = time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (player_id, rating, wins, losses, placement_matches, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET
			rating = excluded.rating,
			wins = excluded.wins,
			losses = excluded.losses,
			placement_matches = excluded.placement_matches,
			updated_at = excluded.updated_at
	`, p.ID, p.Rating, p.Wins, p.Losses, p.PlacementMatches, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", p.ID, err)
	}
	return nil
}

// ListRanked returns players past their placement window, best rating first.
func (r *PlayerRepository) ListRanked(ctx context.Context, limit, offset int) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE placement_matches >= ?
		ORDER BY rating DESC, player_id ASC
		LIMIT ? OFFSET ?
	`, constants.PlacementMatches, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranked players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.Rating, &p.Wins, &p.Losses, &p.PlacementMatches, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *PlayerRepository) Counts(ctx context.Context) (service.PlayerCounts, error) {
	var c service.PlayerCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN placement_matches >= ? THEN 1 END),
			COUNT(CASE WHEN placement_matches > 0 AND placement_matches < ? THEN 1 END)
		FROM players
	`, constants.PlacementMatches, constants.PlacementMatches).Scan(&c.Total, &c.Ranked, &c.InPlacement)
	if err != nil {
		return service.PlayerCounts{}, fmt.Errorf("failed to count players: %w", err)
	}
	return c, nil
}

// ResetAll restores every player to the default rating with zeroed counters.
func (r *PlayerRepository) ResetAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE players
		SET rating = ?, wins = 0, losses = 0, placement_matches = 0, updated_at = ?
	`, constants.DefaultRating, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reset players: %w", err)
	}
	return nil
}

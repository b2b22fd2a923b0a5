package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/l8smu/hsmrankedbot/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// RatingHistoryRepository keeps the applied-delta ledger. A match has at most
// one active (non-reverted) set of rows at a time; admin corrections mark the
// old set reverted before inserting the new one.
type RatingHistoryRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewRatingHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *RatingHistoryRepository {
	return &RatingHistoryRepository{db: sqlDB, logger: logger}
}

func (r *RatingHistoryRepository) WithTx(tx *sql.Tx) *RatingHistoryRepository {
	return &RatingHistoryRepository{db: tx, logger: r.logger}
}

func (r *RatingHistoryRepository) InsertBatch(ctx context.Context, changes []domain.RatingChange) error {
	for i := range changes {
		c := &changes[i]
		if c.ID == "" {
			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate rating change id: %w", err)
			}
			c.ID = id
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO rating_changes (id, match_id, player_id, delta, placement,
				rating_before, rating_after, won, reverted, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		`, c.ID, c.MatchID, c.PlayerID, c.Delta, boolToInt(c.Placement),
			c.RatingBefore, c.RatingAfter, boolToInt(c.Won), c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert rating change for %s: %w", c.PlayerID, err)
		}
	}
	return nil
}

// ActiveByMatch returns the non-reverted rows for a match, empty if the match
// never had ratings applied or its last application was rolled back.
func (r *RatingHistoryRepository) ActiveByMatch(ctx context.Context, matchID int64) ([]domain.RatingChange, error) {
	return r.listByMatch(ctx, matchID, true)
}

// AllByMatch returns every row ever recorded for the match, reverted ones
// included, oldest first.
func (r *RatingHistoryRepository) AllByMatch(ctx context.Context, matchID int64) ([]domain.RatingChange, error) {
	return r.listByMatch(ctx, matchID, false)
}

func (r *RatingHistoryRepository) listByMatch(ctx context.Context, matchID int64, activeOnly bool) ([]domain.RatingChange, error) {
	query := `
		SELECT id, match_id, player_id, delta, placement, rating_before, rating_after, won, created_at
		FROM rating_changes
		WHERE match_id = ?`
	if activeOnly {
		query += " AND reverted = 0"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating changes for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var changes []domain.RatingChange
	for rows.Next() {
		var (
			c               domain.RatingChange
			placement, wonI int
		)
		err := rows.Scan(&c.ID, &c.MatchID, &c.PlayerID, &c.Delta, &placement,
			&c.RatingBefore, &c.RatingAfter, &wonI, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating change: %w", err)
		}
		c.Placement = placement != 0
		c.Won = wonI != 0
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (r *RatingHistoryRepository) MarkReverted(ctx context.Context, matchID int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE rating_changes SET reverted = 1 WHERE match_id = ? AND reverted = 0", matchID)
	if err != nil {
		return fmt.Errorf("failed to mark rating changes reverted for match %d: %w", matchID, err)
	}
	return nil
}

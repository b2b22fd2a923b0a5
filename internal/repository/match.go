package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/l8smu/hsmrankedbot/internal/domain"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: sqlDB, logger: logger}
}

func (r *MatchRepository) WithTx(tx *sql.Tx) *MatchRepository {
	return &MatchRepository{db: tx, logger: r.logger}
}

// MatchName is the display name for a match id.
func MatchName(id int64) string {
	return fmt.Sprintf("HSM%d", id)
}

// Insert persists a pending match and fills in its sequential id and name.
func (r *MatchRepository) Insert(ctx context.Context, m *domain.Match) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO matches (team1_player1, team1_player2, team2_player1, team2_player2,
			winner, completed, admin_modified, cancelled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Team1[0], m.Team1[1], m.Team2[0], m.Team2[1],
		int(m.Winner), boolToInt(m.Completed), boolToInt(m.AdminModified), boolToInt(m.Cancelled), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read match id: %w", err)
	}
	m.ID = id
	m.Name = MatchName(id)
	return nil
}

func (r *MatchRepository) Update(ctx context.Context, m *domain.Match) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches
		SET winner = ?, completed = ?, admin_modified = ?, cancelled = ?
		WHERE match_id = ?
	`, int(m.Winner), boolToInt(m.Completed), boolToInt(m.AdminModified), boolToInt(m.Cancelled), m.ID)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", m.ID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

const matchColumns = `match_id, team1_player1, team1_player2, team2_player1, team2_player2,
	winner, completed, admin_modified, cancelled, created_at`

func (r *MatchRepository) Get(ctx context.Context, matchID int64) (*domain.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx,
		"SELECT "+matchColumns+" FROM matches WHERE match_id = ?", matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	return m, nil
}

// ListRecentCompleted returns the latest completed matches, newest first.
func (r *MatchRepository) ListRecentCompleted(ctx context.Context, limit int) ([]domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+matchColumns+`
		FROM matches
		WHERE completed = 1
		ORDER BY created_at DESC, match_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			m                                  domain.Match
			winner, completed, admin, canceled int
		)
		err := rows.Scan(&m.ID, &m.Team1[0], &m.Team1[1], &m.Team2[0], &m.Team2[1],
			&winner, &completed, &admin, &canceled, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.Name = MatchName(m.ID)
		m.Winner = domain.Winner(winner)
		m.Completed = completed != 0
		m.AdminModified = admin != 0
		m.Cancelled = canceled != 0
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanMatch(row *sql.Row) (*domain.Match, error) {
	var (
		m                                  domain.Match
		winner, completed, admin, canceled int
	)
	err := row.Scan(&m.ID, &m.Team1[0], &m.Team1[1], &m.Team2[0], &m.Team2[1],
		&winner, &completed, &admin, &canceled, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Name = MatchName(m.ID)
	m.Winner = domain.Winner(winner)
	m.Completed = completed != 0
	m.AdminModified = admin != 0
	m.Cancelled = canceled != 0
	return &m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

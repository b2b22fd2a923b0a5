package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/l8smu/hsmrankedbot/internal/domain"
	"github.com/l8smu/hsmrankedbot/internal/service"

	"github.com/rs/zerolog"
)

// Store aggregates the repositories behind the service-layer persistence
// interface. The zero db field marks a transaction-bound copy, which refuses
// nested Transact calls.
type Store struct {
	db      *sql.DB
	players *PlayerRepository
	matches *MatchRepository
	history *RatingHistoryRepository
	logger  zerolog.Logger
}

func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:      db,
		players: NewPlayerRepository(db, logger),
		matches: NewMatchRepository(db, logger),
		history: NewRatingHistoryRepository(db, logger),
		logger:  logger,
	}
}

var _ service.Store = (*Store)(nil)

func (s *Store) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	return s.players.Get(ctx, playerID)
}

func (s *Store) UpsertPlayer(ctx context.Context, p *domain.Player) error {
	return s.players.Upsert(ctx, p)
}

func (s *Store) ListRankedPlayers(ctx context.Context, limit, offset int) ([]domain.Player, error) {
	return s.players.ListRanked(ctx, limit, offset)
}

func (s *Store) CountPlayers(ctx context.Context) (service.PlayerCounts, error) {
	return s.players.Counts(ctx)
}

func (s *Store) ResetAllPlayers(ctx context.Context) error {
	return s.players.ResetAll(ctx)
}

func (s *Store) InsertMatch(ctx context.Context, m *domain.Match) error {
	return s.matches.Insert(ctx, m)
}

func (s *Store) UpdateMatch(ctx context.Context, m *domain.Match) error {
	return s.matches.Update(ctx, m)
}

func (s *Store) GetMatch(ctx context.Context, matchID int64) (*domain.Match, error) {
	return s.matches.Get(ctx, matchID)
}

func (s *Store) ListRecentCompleted(ctx context.Context, limit int) ([]domain.Match, error) {
	return s.matches.ListRecentCompleted(ctx, limit)
}

func (s *Store) InsertRatingChanges(ctx context.Context, changes []domain.RatingChange) error {
	return s.history.InsertBatch(ctx, changes)
}

func (s *Store) ActiveRatingChanges(ctx context.Context, matchID int64) ([]domain.RatingChange, error) {
	return s.history.ActiveByMatch(ctx, matchID)
}

func (s *Store) ListRatingChanges(ctx context.Context, matchID int64) ([]domain.RatingChange, error) {
	return s.history.AllByMatch(ctx, matchID)
}

func (s *Store) MarkRatingChangesReverted(ctx context.Context, matchID int64) error {
	return s.history.MarkReverted(ctx, matchID)
}

// Transact runs fn against a transaction-bound Store and commits if it
// returns nil. Any error rolls everything back.
func (s *Store) Transact(ctx context.Context, fn func(service.Store) error) error {
	if s.db == nil {
		return fmt.Errorf("nested transaction not supported")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := &Store{
		players: s.players.WithTx(tx),
		matches: s.matches.WithTx(tx),
		history: s.history.WithTx(tx),
		logger:  s.logger,
	}
	if err := fn(txStore); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

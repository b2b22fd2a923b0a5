package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/l8smu/hsmrankedbot/internal/domain"
)

// ReportClaim is returned to the participant who won the reporting race.
type ReportClaim struct {
	MatchID   int64     `json:"match_id"`
	PlayerID  string    `json:"player_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestReport grants the reporting claim for a match, first come first
// served among its four participants. The claim expires after the configured
// TTL so an absent claimant cannot block the match forever. Each player's
// placement flag is captured here, at claim time.
func (s *Matchmaker) RequestReport(ctx context.Context, playerID string, matchID int64) (ReportClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.active[matchID]
	if !ok {
		stored, err := s.store.GetMatch(ctx, matchID)
		if err != nil {
			return ReportClaim{}, err
		}
		if stored.Completed || stored.Cancelled {
			return ReportClaim{}, domain.ErrAlreadyReported
		}
		return ReportClaim{}, domain.ErrMatchNotFound
	}

	if !match.HasParticipant(playerID) {
		return ReportClaim{}, domain.ErrNotParticipant
	}

	now := time.Now()
	if existing, ok := s.claims[matchID]; ok && now.Before(existing.expiresAt) {
		if existing.playerID == playerID {
			return ReportClaim{MatchID: matchID, PlayerID: playerID, ExpiresAt: existing.expiresAt}, nil
		}
		return ReportClaim{}, fmt.Errorf("%w: claim held by %s", domain.ErrAlreadyReported, existing.playerID)
	}

	flags := make(map[string]bool, 4)
	for _, id := range match.Participants() {
		p, err := s.store.GetPlayer(ctx, id)
		if err != nil {
			return ReportClaim{}, fmt.Errorf("failed to load player %s: %w", id, err)
		}
		flags[id] = s.engine.IsPlacement(p)
	}

	cl := &claim{
		matchID:        matchID,
		playerID:       playerID,
		expiresAt:      now.Add(s.opts.ClaimTTL),
		placementFlags: flags,
	}
	s.claims[matchID] = cl

	s.logger.Info().
		Int64("match_id", matchID).
		Str("player_id", playerID).
		Time("expires_at", cl.expiresAt).
		Msg("reporting claim granted")

	return ReportClaim{MatchID: matchID, PlayerID: playerID, ExpiresAt: cl.expiresAt}, nil
}

// MatchResult summarizes a committed result.
type MatchResult struct {
	Match   domain.Match          `json:"match"`
	Changes []domain.RatingChange `json:"changes"`
}

// SubmitResult commits the result of a match. The caller must hold the active
// reporting claim; placement flags come from the claim. All writes happen in
// one transaction, so a persistence failure leaves queue, match and ratings
// untouched and the claim still held.
func (s *Matchmaker) SubmitResult(ctx context.Context, playerID string, matchID int64, winner domain.Winner) (*MatchResult, error) {
	if winner != domain.WinnerTeam1 && winner != domain.WinnerTeam2 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidWinner, winner.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.active[matchID]
	if !ok {
		stored, err := s.store.GetMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if stored.Completed || stored.Cancelled {
			return nil, domain.ErrAlreadyReported
		}
		return nil, domain.ErrMatchNotFound
	}

	cl := s.claims[matchID]
	now := time.Now()
	if cl == nil || now.After(cl.expiresAt) || cl.playerID != playerID {
		return nil, domain.ErrNoClaim
	}

	players, err := s.loadParticipants(ctx, match)
	if err != nil {
		return nil, err
	}
	prior := s.capturePrior(players)

	updated := *match
	winIDs, loseIDs := updated.WinnersLosers(winner)
	winners := []*domain.Player{players[winIDs[0]], players[winIDs[1]]}
	losers := []*domain.Player{players[loseIDs[0]], players[loseIDs[1]]}

	changes := s.engine.Apply(matchID, winners, losers, cl.placementFlags, true)
	updated.Winner = winner
	updated.Completed = true

	err = s.store.Transact(ctx, func(st Store) error {
		for _, p := range players {
			if err := st.UpsertPlayer(ctx, p); err != nil {
				return err
			}
		}
		if err := st.UpdateMatch(ctx, &updated); err != nil {
			return err
		}
		return st.InsertRatingChanges(ctx, changes)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist result: %w", err)
	}

	*match = updated
	delete(s.active, matchID)
	delete(s.claims, matchID)

	s.logger.Info().
		Int64("match_id", matchID).
		Str("winner", winner.String()).
		Str("reported_by", playerID).
		Msg("match completed")

	s.scheduleTeardownLocked(matchID)
	s.finishMatch(updated, players, prior, changes)

	return &MatchResult{Match: updated, Changes: changes}, nil
}

// AdminSetResult replaces a match outcome: it reverts the recorded deltas of
// the current application (if any), applies the new outcome (none for a
// cancellation) and marks the match admin-modified. Reverts use the per-player
// deltas and placement flags recorded at original apply time.
func (s *Matchmaker) AdminSetResult(ctx context.Context, matchID int64, newWinner domain.Winner) (*MatchResult, error) {
	if newWinner != domain.WinnerTeam1 && newWinner != domain.WinnerTeam2 && newWinner != domain.WinnerCancelled {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidWinner, newWinner.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, wasActive := s.active[matchID]
	if !wasActive {
		stored, err := s.store.GetMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		match = stored
	}

	if match.Winner == newWinner {
		return nil, domain.ErrNoChange
	}

	recorded, err := s.store.ActiveRatingChanges(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded deltas: %w", err)
	}
	// The full ledger, reverted rows included. A cancellation reverts the
	// active rows, but the match stays played: its original placement flags
	// and the fact that counters were already advanced must survive.
	history, err := s.store.ListRatingChanges(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}

	players, err := s.loadParticipants(ctx, match)
	if err != nil {
		return nil, err
	}
	prior := s.capturePrior(players)

	if len(recorded) > 0 {
		s.engine.Revert(players, recorded)
	}

	updated := *match
	var newChanges []domain.RatingChange
	if newWinner == domain.WinnerCancelled {
		updated.Winner = domain.WinnerCancelled
		updated.Cancelled = true
	} else {
		flags := make(map[string]bool, 4)
		if len(history) > 0 {
			// Oldest rows first, so each player's flag comes from the
			// original application.
			for _, c := range history {
				if _, ok := flags[c.PlayerID]; !ok {
					flags[c.PlayerID] = c.Placement
				}
			}
		} else {
			for id, p := range players {
				flags[id] = s.engine.IsPlacement(p)
			}
		}

		winIDs, loseIDs := updated.WinnersLosers(newWinner)
		winners := []*domain.Player{players[winIDs[0]], players[winIDs[1]]}
		losers := []*domain.Player{players[loseIDs[0]], players[loseIDs[1]]}

		// Advance placement counters only if no application was ever
		// recorded; a replaced or reinstated result is still the same
		// played match.
		newChanges = s.engine.Apply(matchID, winners, losers, flags, len(history) == 0)
		updated.Winner = newWinner
		updated.Completed = true
		updated.Cancelled = false
	}
	updated.AdminModified = true

	err = s.store.Transact(ctx, func(st Store) error {
		if len(recorded) > 0 {
			if err := st.MarkRatingChangesReverted(ctx, matchID); err != nil {
				return err
			}
		}
		for _, p := range players {
			if err := st.UpsertPlayer(ctx, p); err != nil {
				return err
			}
		}
		if err := st.UpdateMatch(ctx, &updated); err != nil {
			return err
		}
		if len(newChanges) > 0 {
			return st.InsertRatingChanges(ctx, newChanges)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist admin result: %w", err)
	}

	if wasActive {
		*match = updated
		delete(s.active, matchID)
		delete(s.claims, matchID)
		s.scheduleTeardownLocked(matchID)
	}

	s.logger.Info().
		Int64("match_id", matchID).
		Str("winner", newWinner.String()).
		Bool("was_active", wasActive).
		Msg("match result replaced by admin")

	s.recomputeTiersAsync(players, prior)
	for _, id := range updated.Participants() {
		s.notifyAsync(id, fmt.Sprintf("Match %s was corrected by an admin. New result: %s.", updated.Name, newWinner.String()))
	}

	return &MatchResult{Match: updated, Changes: newChanges}, nil
}

type priorState struct {
	rating int
	ranked bool
}

func (s *Matchmaker) loadParticipants(ctx context.Context, match *domain.Match) (map[string]*domain.Player, error) {
	players := make(map[string]*domain.Player, 4)
	for _, id := range match.Participants() {
		p, err := s.store.GetPlayer(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load player %s: %w", id, err)
		}
		players[id] = p
	}
	return players, nil
}

func (s *Matchmaker) capturePrior(players map[string]*domain.Player) map[string]priorState {
	window := s.engine.Config().PlacementWindow
	prior := make(map[string]priorState, len(players))
	for id, p := range players {
		prior[id] = priorState{rating: p.Rating, ranked: p.Ranked(window)}
	}
	return prior
}

// finishMatch runs the post-commit side effects: tier recomputes and result
// notifications, all best-effort and off the critical section.
func (s *Matchmaker) finishMatch(match domain.Match, players map[string]*domain.Player, prior map[string]priorState, changes []domain.RatingChange) {
	s.recomputeTiersAsync(players, prior)

	window := s.engine.Config().PlacementWindow
	for _, c := range changes {
		p := players[c.PlayerID]
		var text string
		switch {
		case c.Won && c.Placement:
			text = fmt.Sprintf("You won match %s! Placement %d/%d. Rating %d -> %d.",
				match.Name, p.PlacementMatches, window, c.RatingBefore, c.RatingAfter)
		case c.Won:
			text = fmt.Sprintf("You won match %s! Rating %d -> %d (+%d).",
				match.Name, c.RatingBefore, c.RatingAfter, c.Delta)
		case c.Placement:
			text = fmt.Sprintf("Match %s is over, better luck next time. Placement %d/%d. Rating %d -> %d.",
				match.Name, p.PlacementMatches, window, c.RatingBefore, c.RatingAfter)
		default:
			text = fmt.Sprintf("Match %s is over, better luck next time. Rating %d -> %d (%d).",
				match.Name, c.RatingBefore, c.RatingAfter, c.Delta)
		}
		if c.Placement && p.PlacementMatches == window {
			text += " Placements complete, your tier is now live!"
		}
		s.notifyAsync(c.PlayerID, text)
	}
}

func (s *Matchmaker) recomputeTiersAsync(players map[string]*domain.Player, prior map[string]priorState) {
	copies := make([]domain.Player, 0, len(players))
	for _, p := range players {
		copies = append(copies, *p)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		for i := range copies {
			p := &copies[i]
			st, ok := prior[p.ID]
			if !ok {
				continue
			}
			s.assigner.Recompute(ctx, p, st.rating, st.ranked)
		}
	}()
}

// IsNotFound reports whether err means an unknown match or player.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrMatchNotFound) || errors.Is(err, domain.ErrPlayerNotFound)
}

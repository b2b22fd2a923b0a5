package rating

import (
	"time"

	"github.com/l8smu/hsmrankedbot/internal/constants"
	"github.com/l8smu/hsmrankedbot/internal/domain"

	"github.com/rs/zerolog"
)

// Config holds the rating deltas and the placement window size.
type Config struct {
	BaseRating      int
	PlacementWindow int
	RankedWin       int
	RankedLoss      int
	PlacementWin    int
	PlacementLoss   int
}

func DefaultConfig() Config {
	return Config{
		BaseRating:      constants.DefaultRating,
		PlacementWindow: constants.PlacementMatches,
		RankedWin:       constants.RankedWinDelta,
		RankedLoss:      constants.RankedLossDelta,
		PlacementWin:    constants.PlacementWinDelta,
		PlacementLoss:   constants.PlacementLossDelta,
	}
}

// Engine applies and reverts rating deltas. Every application is returned as a
// RatingChange carrying the delta that was actually written, so a revert is
// exact even when a loss was clamped at the zero floor.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{cfg: DefaultConfig(), logger: logger}
}

func NewEngineWithConfig(cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

func (e *Engine) Config() Config { return e.cfg }

// IsPlacement reports whether a player's next completed match falls inside the
// placement window. The flag must be captured before the counter is advanced.
func (e *Engine) IsPlacement(p *domain.Player) bool {
	return p.PlacementMatches < e.cfg.PlacementWindow
}

func (e *Engine) winDelta(placement bool) int {
	if placement {
		return e.cfg.PlacementWin
	}
	return e.cfg.RankedWin
}

func (e *Engine) lossDelta(placement bool) int {
	if placement {
		return e.cfg.PlacementLoss
	}
	return e.cfg.RankedLoss
}

// Apply credits the winners and debits the losers, clamping ratings at zero.
// placementFlags maps each player id to the placement status captured at claim
// time. When advancePlacement is set, every participant's placement counter is
// incremented; an admin re-application after a revert passes false so the
// counter is not advanced twice for the same match.
func (e *Engine) Apply(matchID int64, winners, losers []*domain.Player, placementFlags map[string]bool, advancePlacement bool) []domain.RatingChange {
	now := time.Now()
	changes := make([]domain.RatingChange, 0, len(winners)+len(losers))

	for _, p := range winners {
		placement := placementFlags[p.ID]
		before := p.Rating
		p.Rating += e.winDelta(placement)
		p.Wins++
		if advancePlacement {
			p.PlacementMatches++
		}
		changes = append(changes, e.record(matchID, p, before, placement, true, now))
	}

	for _, p := range losers {
		placement := placementFlags[p.ID]
		before := p.Rating
		p.Rating = max(0, p.Rating-e.lossDelta(placement))
		p.Losses++
		if advancePlacement {
			p.PlacementMatches++
		}
		changes = append(changes, e.record(matchID, p, before, placement, false, now))
	}

	return changes
}

func (e *Engine) record(matchID int64, p *domain.Player, before int, placement, won bool, now time.Time) domain.RatingChange {
	e.logger.Info().
		Int64("match_id", matchID).
		Str("player_id", p.ID).
		Int("rating_before", before).
		Int("rating_after", p.Rating).
		Bool("placement", placement).
		Bool("won", won).
		Msg("rating applied")

	return domain.RatingChange{
		MatchID:      matchID,
		PlayerID:     p.ID,
		Delta:        p.Rating - before,
		Placement:    placement,
		RatingBefore: before,
		RatingAfter:  p.Rating,
		Won:          won,
		CreatedAt:    now,
	}
}

// Revert undoes a previous application using the recorded deltas, restoring
// each player's pre-match rating exactly. Win/loss counters are rolled back;
// placement counters are deliberately left alone (a played match stays played).
func (e *Engine) Revert(players map[string]*domain.Player, changes []domain.RatingChange) {
	for _, c := range changes {
		p, ok := players[c.PlayerID]
		if !ok {
			continue
		}
		before := p.Rating
		p.Rating = max(0, p.Rating-c.Delta)
		if c.Won {
			p.Wins = max(0, p.Wins-1)
		} else {
			p.Losses = max(0, p.Losses-1)
		}
		e.logger.Info().
			Int64("match_id", c.MatchID).
			Str("player_id", c.PlayerID).
			Int("rating_before", before).
			Int("rating_after", p.Rating).
			Bool("placement", c.Placement).
			Bool("won", c.Won).
			Msg("rating reverted")
	}
}

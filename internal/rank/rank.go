package rank

import (
	"context"
	"math"

	"github.com/l8smu/hsmrankedbot/internal/constants"
	"github.com/l8smu/hsmrankedbot/internal/domain"

	"github.com/rs/zerolog"
)

// Unbounded marks the top tier's upper edge.
const Unbounded = math.MaxInt

// DefaultTiers tile the whole non-negative rating domain with no gaps.
var DefaultTiers = []domain.Tier{
	{Name: "UNRANKED", Min: 0, Max: 799},
	{Name: "SILVER SEEKER", Min: 800, Max: 949},
	{Name: "PLATINUM SEEKER", Min: 950, Max: 1099},
	{Name: "CRYSTAL SEEKER", Min: 1100, Max: 1249},
	{Name: "ELITE SEEKER", Min: 1250, Max: 1449},
	{Name: "MASTER SEEKER", Min: 1450, Max: 1699},
	{Name: "LEGENDARY SEEKER", Min: 1700, Max: Unbounded},
}

// TierFor returns the tier whose range contains the rating.
func TierFor(rating int) domain.Tier {
	for _, t := range DefaultTiers {
		if rating >= t.Min && rating <= t.Max {
			return t
		}
	}
	// Ranges tile [0, MaxInt]; only a negative rating can fall through.
	return DefaultTiers[0]
}

// NextTier returns the tier above the rating's current one, or false from the
// top tier.
func NextTier(rating int) (domain.Tier, bool) {
	for _, t := range DefaultTiers {
		if t.Min > rating {
			return t, true
		}
	}
	return domain.Tier{}, false
}

// RoleApplier pushes a player's tier marker to the external presentation
// layer. Implementations are idempotent and best-effort.
type RoleApplier interface {
	SetPlayerTier(ctx context.Context, playerID, tierName string) error
}

// Assigner decides when a tier marker is due and instructs the RoleApplier.
type Assigner struct {
	applier RoleApplier
	window  int
	logger  zerolog.Logger
}

func NewAssigner(applier RoleApplier, logger zerolog.Logger) *Assigner {
	return &Assigner{applier: applier, window: constants.PlacementMatches, logger: logger}
}

// TierForPlayer returns the player's tier, or false while they are still in
// their placement window.
func (a *Assigner) TierForPlayer(p *domain.Player) (domain.Tier, bool) {
	if !p.Ranked(a.window) {
		return domain.Tier{}, false
	}
	return TierFor(p.Rating), true
}

// Recompute compares the tier implied by the previous and current state and,
// when it changed (including a placement-window crossing), asks the applier to
// swap the player's tier marker. Applier failures are logged and swallowed.
func (a *Assigner) Recompute(ctx context.Context, p *domain.Player, ratingBefore int, rankedBefore bool) {
	tierNow, rankedNow := a.TierForPlayer(p)
	if !rankedNow {
		return
	}

	if rankedBefore && TierFor(ratingBefore).Name == tierNow.Name {
		return
	}

	if err := a.applier.SetPlayerTier(ctx, p.ID, tierNow.Name); err != nil {
		a.logger.Warn().
			Err(err).
			Str("player_id", p.ID).
			Str("tier", tierNow.Name).
			Msg("failed to apply tier marker")
		return
	}

	a.logger.Info().
		Str("player_id", p.ID).
		Str("tier", tierNow.Name).
		Int("rating", p.Rating).
		Msg("tier marker updated")
}

// Reassert pushes the player's current tier marker unconditionally; used by
// the periodic broadcast to heal drift in the external role state.
func (a *Assigner) Reassert(ctx context.Context, p *domain.Player) {
	tier, ranked := a.TierForPlayer(p)
	if !ranked {
		return
	}
	if err := a.applier.SetPlayerTier(ctx, p.ID, tier.Name); err != nil {
		a.logger.Warn().
			Err(err).
			Str("player_id", p.ID).
			Str("tier", tier.Name).
			Msg("failed to reassert tier marker")
	}
}

// Package role applies tier markers through the external role webhook.
// Setting a player's tier implicitly clears any previous marker on the
// receiving side, so the call is idempotent.
package role

import (
	"context"

	"github.com/l8smu/hsmrankedbot/internal/config"
	"github.com/l8smu/hsmrankedbot/internal/webhook"

	"github.com/rs/zerolog"
)

type tierAssignment struct {
	PlayerID string `json:"player_id"`
	TierName string `json:"tier_name"`
}

type WebhookApplier struct {
	url    string
	client *webhook.Client
	logger zerolog.Logger
}

func NewWebhookApplier(cfg *config.Config, client *webhook.Client, logger zerolog.Logger) *WebhookApplier {
	return &WebhookApplier{url: cfg.RoleWebhook, client: client, logger: logger}
}

func (a *WebhookApplier) SetPlayerTier(ctx context.Context, playerID, tierName string) error {
	if a.url == "" {
		a.logger.Debug().Str("player_id", playerID).Str("tier", tierName).Msg("tier marker dropped, no webhook configured")
		return nil
	}
	return a.client.Post(ctx, a.url, tierAssignment{PlayerID: playerID, TierName: tierName})
}

// Package notify delivers best-effort direct messages to players through an
// outbound webhook owned by the presentation layer.
package notify

import (
	"context"

	"github.com/l8smu/hsmrankedbot/internal/config"
	"github.com/l8smu/hsmrankedbot/internal/webhook"

	"github.com/rs/zerolog"
)

type Notifier interface {
	SendDirectMessage(ctx context.Context, playerID, text string) error
}

type directMessage struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

// WebhookNotifier posts messages to the configured webhook. With no webhook
// configured it degrades to logging only.
type WebhookNotifier struct {
	url    string
	client *webhook.Client
	logger zerolog.Logger
}

func NewWebhookNotifier(cfg *config.Config, client *webhook.Client, logger zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{url: cfg.NotifyWebhook, client: client, logger: logger}
}

func (n *WebhookNotifier) SendDirectMessage(ctx context.Context, playerID, text string) error {
	if n.url == "" {
		n.logger.Debug().Str("player_id", playerID).Str("text", text).Msg("direct message dropped, no webhook configured")
		return nil
	}
	return n.client.Post(ctx, n.url, directMessage{PlayerID: playerID, Text: text})
}

// Package venue provisions the per-match communication channels. Failures are
// always non-fatal to match flow: the caller falls back to default handles.
package venue

import (
	"context"
	"fmt"

	"github.com/l8smu/hsmrankedbot/internal/config"
	"github.com/l8smu/hsmrankedbot/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Handles identify the provisioned channels so they can be torn down later.
type Handles struct {
	MatchID    int64
	TextID     string
	Team1Voice string
	Team2Voice string
	Fallback   bool
}

type Provisioner interface {
	CreateMatchChannels(ctx context.Context, m *domain.Match) (*Handles, error)
	DeleteChannels(ctx context.Context, h *Handles) error
}

// ChannelProvisioner allocates channel handles locally. It stands in for the
// chat-platform integration, which lives outside this process.
type ChannelProvisioner struct {
	prefix string
	logger zerolog.Logger
}

func NewChannelProvisioner(cfg *config.Config, logger zerolog.Logger) *ChannelProvisioner {
	return &ChannelProvisioner{prefix: cfg.VenueNamePrefix, logger: logger}
}

func (p *ChannelProvisioner) CreateMatchChannels(ctx context.Context, m *domain.Match) (*Handles, error) {
	text, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate channel handle: %w", err)
	}
	v1, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate channel handle: %w", err)
	}
	v2, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate channel handle: %w", err)
	}

	h := &Handles{
		MatchID:    m.ID,
		TextID:     fmt.Sprintf("%s-%s-%s", p.prefix, m.Name, text),
		Team1Voice: fmt.Sprintf("%s-%s-t1-%s", p.prefix, m.Name, v1),
		Team2Voice: fmt.Sprintf("%s-%s-t2-%s", p.prefix, m.Name, v2),
	}

	p.logger.Info().
		Int64("match_id", m.ID).
		Str("text_channel", h.TextID).
		Msg("match channels provisioned")
	return h, nil
}

func (p *ChannelProvisioner) DeleteChannels(ctx context.Context, h *Handles) error {
	p.logger.Info().
		Int64("match_id", h.MatchID).
		Str("text_channel", h.TextID).
		Bool("fallback", h.Fallback).
		Msg("match channels torn down")
	return nil
}

// FallbackHandles is used when provisioning fails; the match proceeds without
// dedicated channels.
func FallbackHandles(matchID int64) *Handles {
	return &Handles{MatchID: matchID, Fallback: true}
}

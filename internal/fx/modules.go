// Package fx wires the application graph.
package fx

import (
	"github.com/l8smu/hsmrankedbot/internal/config"
	"github.com/l8smu/hsmrankedbot/internal/database"
	"github.com/l8smu/hsmrankedbot/internal/logger"
	"github.com/l8smu/hsmrankedbot/internal/notify"
	"github.com/l8smu/hsmrankedbot/internal/rank"
	"github.com/l8smu/hsmrankedbot/internal/rating"
	"github.com/l8smu/hsmrankedbot/internal/repository"
	"github.com/l8smu/hsmrankedbot/internal/role"
	"github.com/l8smu/hsmrankedbot/internal/server"
	"github.com/l8smu/hsmrankedbot/internal/service"
	"github.com/l8smu/hsmrankedbot/internal/venue"
	"github.com/l8smu/hsmrankedbot/internal/webhook"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(webhook.NewClient),
	// persistence
	fx.Provide(repository.NewStore),
	fx.Provide(func(s *repository.Store) service.Store { return s }),
	// best-effort collaborators
	fx.Provide(notify.NewWebhookNotifier),
	fx.Provide(func(n *notify.WebhookNotifier) notify.Notifier { return n }),
	fx.Provide(role.NewWebhookApplier),
	fx.Provide(func(a *role.WebhookApplier) rank.RoleApplier { return a }),
	fx.Provide(venue.NewChannelProvisioner),
	fx.Provide(func(p *venue.ChannelProvisioner) venue.Provisioner { return p }),
	// core
	fx.Provide(rating.NewEngine),
	fx.Provide(rank.NewAssigner),
	fx.Provide(service.NewMatchmaker),
	fx.Provide(service.NewPlayerService),
	// server
	fx.Provide(server.NewRankedServer),
)

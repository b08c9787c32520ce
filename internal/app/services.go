package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/data/db"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/realtime"
	"github.com/yungbote/routemill-backend/internal/services/activity"
	"github.com/yungbote/routemill-backend/internal/services/browse"
	"github.com/yungbote/routemill-backend/internal/services/feed"
	"github.com/yungbote/routemill-backend/internal/services/settings"
	"github.com/yungbote/routemill-backend/internal/services/stats"
	"github.com/yungbote/routemill-backend/internal/services/users"
)

type Services struct {
	Store    activity.Store
	Stats    stats.Service
	Feed     feed.Assembler
	Browse   browse.Service
	Settings settings.Service
	Profiles users.ProfileSync
}

func wireServices(theDB *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, hub *realtime.SSEHub) Services {
	log.Info("Wiring services...")

	// Appends fan out through redis when configured so every instance's hub
	// sees them; otherwise they go straight to the local hub.
	var publisher activity.Publisher = hub
	if clients.SSEBus != nil {
		publisher = clients.SSEBus
	}

	statsSvc := stats.NewService(log, repos.Events, repos.Routes, repos.Users, clients.Cache, stats.Config{
		CacheTTL: cfg.StatsCacheTTL,
	})
	store := activity.NewStore(
		log,
		db.NewTxRunner(theDB),
		repos.Events,
		repos.Notes,
		repos.Routes,
		publisher,
		statsSvc,
		activity.Config{
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
		},
	)

	return Services{
		Store:    store,
		Stats:    statsSvc,
		Feed:     feed.NewAssembler(log, store, repos.Users, repos.Routes, repos.Walls),
		Browse:   browse.NewService(log, repos.Walls, repos.Routes, statsSvc, store, browse.Config{FreshWindow: cfg.FreshWindow}),
		Settings: settings.NewService(log, repos.Settings),
		Profiles: users.NewProfileSync(log, repos.Users),
	}
}

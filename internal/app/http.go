package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/http"
	httpH "github.com/yungbote/routemill-backend/internal/http/handlers"
	httpMW "github.com/yungbote/routemill-backend/internal/http/middleware"
	"github.com/yungbote/routemill-backend/internal/observability"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Feed     *httpH.FeedHandler
	Browse   *httpH.BrowseHandler
	Activity *httpH.ActivityHandler
	User     *httpH.UserHandler
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, theDB *gorm.DB, cfg Config, services Services, hub *realtime.SSEHub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(theDB),
		Feed:     httpH.NewFeedHandler(log, services.Feed, services.Settings),
		Browse:   httpH.NewBrowseHandler(log, services.Browse, services.Settings),
		Activity: httpH.NewActivityHandler(log, services.Store, metrics, cfg.AppendTimeout),
		User:     httpH.NewUserHandler(log, services.Stats, services.Settings),
		Realtime: httpH.NewRealtimeHandler(log, hub),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey, services.Profiles),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		ServiceName:     cfg.Otel.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		FeedHandler:     handlers.Feed,
		BrowseHandler:   handlers.Browse,
		ActivityHandler: handlers.Activity,
		UserHandler:     handlers.User,
		RealtimeHandler: handlers.Realtime,
	})
}

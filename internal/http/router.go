package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/routemill-backend/internal/http/handlers"
	httpMW "github.com/yungbote/routemill-backend/internal/http/middleware"
	"github.com/yungbote/routemill-backend/internal/observability"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	FeedHandler     *httpH.FeedHandler
	BrowseHandler   *httpH.BrowseHandler
	ActivityHandler *httpH.ActivityHandler
	UserHandler     *httpH.UserHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "routemill"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/realtime/stream", cfg.RealtimeHandler.SSEStream)
		}

		// Feed
		if cfg.FeedHandler != nil {
			protected.GET("/feed", cfg.FeedHandler.Global)
			protected.GET("/routes/:id/activity", cfg.FeedHandler.RouteActivity)
			protected.GET("/users/:id/activity", cfg.FeedHandler.UserActivity)
		}

		// Walls and routes
		if cfg.BrowseHandler != nil {
			protected.GET("/walls", cfg.BrowseHandler.ListWalls)
			protected.GET("/walls/:id/routes", cfg.BrowseHandler.ListWallRoutes)
			protected.GET("/routes/:id", cfg.BrowseHandler.GetRoute)
		}

		// Activity writes and notes
		if cfg.ActivityHandler != nil {
			protected.POST("/routes/:id/activity", cfg.ActivityHandler.CreateRouteActivity)
			protected.POST("/routes/:id/attempts", cfg.ActivityHandler.LogAttempt)
			protected.GET("/routes/:id/note", cfg.ActivityHandler.GetNote)
			protected.PUT("/routes/:id/note", cfg.ActivityHandler.PutNote)
		}

		// Users and settings
		if cfg.UserHandler != nil {
			protected.GET("/users/:id/profile", cfg.UserHandler.GetProfile)
			protected.GET("/me/settings", cfg.UserHandler.GetSettings)
			protected.PUT("/me/settings", cfg.UserHandler.PutSettings)
		}
	}

	return r
}

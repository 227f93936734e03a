package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/CryptracSolutions/ultaura-insights/internal/http/handlers"
	httpMW "github.com/CryptracSolutions/ultaura-insights/internal/http/middleware"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	InsightsHandler *httpH.InsightsHandler
	SettingsHandler *httpH.SettingsHandler
	HealthHandler   *httpH.HealthHandler

	TracingEnabled bool
	ServiceName    string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.InsightsHandler != nil {
			protected.GET("/lines/:line_id/insights/dashboard", cfg.InsightsHandler.GetDashboard)
			protected.GET("/lines/:line_id/insights/summary", cfg.InsightsHandler.GetWeeklySummary)
		}

		if cfg.SettingsHandler != nil {
			protected.GET("/lines/:line_id/insights/privacy", cfg.SettingsHandler.GetPrivacy)
			protected.PATCH("/lines/:line_id/insights/privacy", cfg.SettingsHandler.UpdatePrivacy)
			protected.POST("/lines/:line_id/insights/pause", cfg.SettingsHandler.SetPauseMode)
			protected.GET("/lines/:line_id/notification-preferences", cfg.SettingsHandler.GetNotificationPreferences)
			protected.PATCH("/lines/:line_id/notification-preferences", cfg.SettingsHandler.UpdateNotificationPreferences)
		}
	}

	return r
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/api/middleware"
	"github.com/osa911/caddymanager/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// MiddlewareConfig holds the settings of the global middleware chain
type MiddlewareConfig struct {
	ServiceName    string
	AllowedOrigins string
	LogRequests    bool
	RateLimit      middleware.RateLimitConfig
}

// Setup configures all route groups
func Setup(router *gin.Engine, h *Handlers, gatherer prometheus.Gatherer, staticDir string) {
	logger := logging.GetGlobalLogger()

	api := router.Group("/api")

	SetupHealthRoutes(api, h.Health)
	SetupHostRoutes(api, h.Host)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if staticDir != "" {
		SetupStaticRoutes(router, staticDir)
	}

	logger.Info("All routes have been set up successfully")
}

// SetupStaticRoutes serves the frontend for every path no API route matched
func SetupStaticRoutes(router *gin.Engine, staticDir string) {
	router.NoRoute(gin.WrapH(http.FileServer(http.Dir(staticDir))))
}

// SetupGlobalMiddleware configures middleware that applies to all routes
func SetupGlobalMiddleware(router *gin.Engine, logger *logging.Logger, cfg MiddlewareConfig) {
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.RequestLogger(logger, cfg.LogRequests))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit))
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/api/handlers"
	"github.com/osa911/caddymanager/internal/api/middleware"
	"github.com/osa911/caddymanager/internal/api/validation"
	"github.com/osa911/caddymanager/internal/config"
	"github.com/osa911/caddymanager/internal/logging"
	"github.com/osa911/caddymanager/internal/server/routes"
	"github.com/osa911/caddymanager/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

// ServiceName identifies this server in traces and logs
const ServiceName = "caddymanager"

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	cfg        *config.Config
	httpServer *http.Server
	logger     *logging.Logger
}

// Dependencies holds the services the HTTP layer is built on
type Dependencies struct {
	Hosts    service.HostService
	Caddy    service.CaddyService
	Gatherer prometheus.Gatherer
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Disable Gin's default logger entirely because we're using our custom logger
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	if err := validation.RegisterWithGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	logger := logging.GetGlobalLogger()
	router := gin.New()

	routes.SetupGlobalMiddleware(router, logger, routes.MiddlewareConfig{
		ServiceName:    ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		LogRequests:    cfg.LogRequests,
		RateLimit: middleware.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
	})

	routes.Setup(router, &routes.Handlers{
		Health: handlers.NewHealthHandler(deps.Caddy),
		Host:   handlers.NewHostHandler(deps.Hosts),
	}, deps.Gatherer, cfg.StaticDir)

	return &Server{
		router: router,
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

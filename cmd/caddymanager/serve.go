package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osa911/caddymanager/internal/config"
	"github.com/osa911/caddymanager/internal/logging"
	"github.com/osa911/caddymanager/internal/metrics"
	"github.com/osa911/caddymanager/internal/server"
	"github.com/osa911/caddymanager/internal/service"
	"github.com/osa911/caddymanager/internal/telemetry"
	"github.com/osa911/caddymanager/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start caddy and serve the management API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logConfig := &logging.LogConfig{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}
	if err := logConfig.Validate(); err != nil {
		return err
	}
	if err := logging.InitLogger(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := logging.GetGlobalLogger()
	defer logger.Close()

	logger.Info("Starting caddymanager %s in %s mode", version.Info(), cfg.Environment)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, server.ServiceName, version.Version)
	if err != nil {
		logger.Error("Failed to initialize tracing: %v", err)
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Failed to flush traces: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	caddy := service.NewCaddyService(service.CaddyConfig{
		Binary:        cfg.CaddyBinary,
		ConfigPath:    cfg.Caddyfile,
		PIDFile:       cfg.CaddyPIDFile,
		LogFile:       cfg.CaddyLogFile,
		ReloadTimeout: cfg.CaddyReloadTimeout,
	}, m)

	if err := caddy.Start(ctx); err != nil {
		logger.Error("Failed to start caddy: %v", err)
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		caddy.Shutdown(stopCtx)
	}()

	hosts := service.NewHostService(cfg.Caddyfile, caddy, m)

	srv, err := server.NewServer(cfg, server.Dependencies{
		Hosts:    hosts,
		Caddy:    caddy,
		Gatherer: registry,
	})
	if err != nil {
		logger.Error("Failed to create server: %v", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		httpCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(httpCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error: %v", err)
		return err
	}
	return nil
}

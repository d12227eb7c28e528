package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/osa911/caddymanager/internal/caddy"
	"github.com/osa911/caddymanager/internal/logging"
	"github.com/osa911/caddymanager/internal/metrics"
	"github.com/osa911/caddymanager/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HostService defines the interface for host registry operations
type HostService interface {
	List(ctx context.Context) ([]models.Host, error)
	Add(ctx context.Context, host models.Host) error
	Remove(ctx context.Context, name string) error
}

type hostService struct {
	configPath string
	reloader   Reloader
	logger     *logging.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	// mu serializes read-modify-write-reload on configPath; List takes it shared
	mu sync.RWMutex
}

// NewHostService creates a host registry backed by the Caddyfile at configPath
func NewHostService(configPath string, reloader Reloader, m *metrics.Metrics) HostService {
	return &hostService{
		configPath: configPath,
		reloader:   reloader,
		logger:     logging.GetGlobalLogger(),
		metrics:    m,
		tracer:     otel.Tracer("github.com/osa911/caddymanager/internal/service"),
	}
}

// List returns every host block in the Caddyfile in document order
func (s *hostService) List(ctx context.Context) ([]models.Host, error) {
	_, span := s.tracer.Start(ctx, "HostService.List")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	config, err := s.readConfig()
	if err != nil {
		recordSpanError(span, err)
		s.metrics.HostOperation("list", metrics.ResultError)
		return nil, err
	}

	hosts := caddy.Parse(config)
	s.metrics.SetHosts(len(hosts))
	s.metrics.HostOperation("list", metrics.ResultOK)
	span.SetAttributes(attribute.Int("hosts.count", len(hosts)))
	return hosts, nil
}

// Add appends host to the dynamic region and reloads caddy.
// A name already present anywhere in the Caddyfile is rejected with ErrConflict
// before anything is written.
func (s *hostService) Add(ctx context.Context, host models.Host) error {
	ctx, span := s.tracer.Start(ctx, "HostService.Add", trace.WithAttributes(
		attribute.String("host.name", host.Name),
		attribute.String("host.upstream", fmt.Sprintf("%s://%s:%d", host.Scheme, host.IP, host.Port)),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Adding host %s -> %s://%s:%d", host.Name, host.Scheme, host.IP, host.Port)

	config, err := s.readConfig()
	if err != nil {
		return s.fail(span, "add", err)
	}

	for _, existing := range caddy.Parse(config) {
		if existing.Name == host.Name {
			s.logger.Warn("Host with name '%s' already exists", host.Name)
			s.metrics.HostOperation("add", metrics.ResultConflict)
			err := fmt.Errorf("%w: host with name '%s' already exists", ErrConflict, host.Name)
			recordSpanError(span, err)
			return err
		}
	}

	dynamic, err := caddy.ParseDynamic(config)
	if err != nil {
		return s.fail(span, "add", err)
	}

	if err := s.apply(ctx, config, append(dynamic, host)); err != nil {
		return s.fail(span, "add", err)
	}

	s.metrics.HostOperation("add", metrics.ResultOK)
	s.logger.Info("Successfully added host: %s", host.Name)
	return nil
}

// Remove drops every dynamic host named name and reloads caddy.
// Removing a name that does not exist succeeds and still reloads.
func (s *hostService) Remove(ctx context.Context, name string) error {
	ctx, span := s.tracer.Start(ctx, "HostService.Remove", trace.WithAttributes(
		attribute.String("host.name", name),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Removing host %s", name)

	config, err := s.readConfig()
	if err != nil {
		return s.fail(span, "remove", err)
	}

	dynamic, err := caddy.ParseDynamic(config)
	if err != nil {
		return s.fail(span, "remove", err)
	}

	kept := make([]models.Host, 0, len(dynamic))
	for _, h := range dynamic {
		if h.Name != name {
			kept = append(kept, h)
		}
	}
	if len(kept) == len(dynamic) {
		s.logger.Debug("Host %s not found in dynamic config, nothing to remove", name)
	}

	if err := s.apply(ctx, config, kept); err != nil {
		return s.fail(span, "remove", err)
	}

	s.metrics.HostOperation("remove", metrics.ResultOK)
	s.logger.Info("Successfully removed host: %s", name)
	return nil
}

// apply renders hosts into config, writes the file and reloads caddy.
// Must be called with mu held.
func (s *hostService) apply(ctx context.Context, config string, hosts []models.Host) error {
	rendered, err := caddy.Render(config, hosts)
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	if err := s.writeConfig(rendered); err != nil {
		return err
	}
	s.metrics.SetHosts(len(caddy.Parse(rendered)))

	if err := s.reloader.Reload(ctx); err != nil {
		return err
	}
	return nil
}

func (s *hostService) readConfig() (string, error) {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read config file %s: %w", s.configPath, err)
	}
	return string(data), nil
}

// writeConfig replaces the Caddyfile through a temp file in the same directory
// and a rename, so readers never see a partially written file. The current
// file mode is kept, and a symlinked Caddyfile is written at its target.
func (s *hostService) writeConfig(config string) error {
	path := s.configPath
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write config file %s: %w", s.configPath, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(config); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file %s: %w", s.configPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync config file %s: %w", s.configPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", s.configPath, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set mode on config file %s: %w", s.configPath, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace config file %s: %w", s.configPath, err)
	}
	committed = true
	return nil
}

func (s *hostService) fail(span trace.Span, operation string, err error) error {
	s.logger.Error("Host %s failed: %v", operation, err)
	s.metrics.HostOperation(operation, metrics.ResultError)
	recordSpanError(span, err)
	return err
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

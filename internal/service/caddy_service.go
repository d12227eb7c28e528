package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/osa911/caddymanager/internal/logging"
	"github.com/osa911/caddymanager/internal/metrics"
)

const (
	// DefaultReloadTimeout bounds a single caddy reload invocation
	DefaultReloadTimeout = 10 * time.Second

	// reloadWaitDelay bounds how long Wait blocks on output pipes after a kill
	reloadWaitDelay = time.Second

	// shutdownWait bounds how long Shutdown waits for the caddy process to exit
	shutdownWait = 5 * time.Second
)

// Reloader triggers a graceful configuration reload of the proxy
type Reloader interface {
	Reload(ctx context.Context) error
}

// CaddyService defines the interface for supervising the caddy process
type CaddyService interface {
	Reloader
	Start(ctx context.Context) error
	Status() ProcessStatus
	Shutdown(ctx context.Context)
}

// ProcessStatus reports whether a caddy process was captured at startup.
// It is not a liveness probe.
type ProcessStatus struct {
	Running bool
}

// CaddyConfig describes how the caddy binary is invoked
type CaddyConfig struct {
	Binary        string
	ConfigPath    string
	PIDFile       string
	LogFile       string
	ReloadTimeout time.Duration
}

type caddyService struct {
	cfg     CaddyConfig
	logger  *logging.Logger
	metrics *metrics.Metrics

	// runCommand executes helper commands such as pkill
	runCommand func(ctx context.Context, name string, args ...string) error

	mu     sync.RWMutex
	cmd    *exec.Cmd
	pid    int
	exited chan struct{}
}

// NewCaddyService creates a new caddy supervisor. Nothing is started until Start.
func NewCaddyService(cfg CaddyConfig, m *metrics.Metrics) CaddyService {
	if cfg.Binary == "" {
		cfg.Binary = "caddy"
	}
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = DefaultReloadTimeout
	}
	return &caddyService{
		cfg:        cfg,
		logger:     logging.GetGlobalLogger(),
		metrics:    m,
		runCommand: runCommand,
	}
}

// Start launches `caddy run` against the config file and records its pid.
// Stale caddy processes and the old pid file are cleaned up first.
func (s *caddyService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return fmt.Errorf("caddy is already running (PID: %d)", s.pid)
	}

	s.killByName(ctx)
	s.removePIDFile()

	cmd := exec.Command(s.cfg.Binary, "run", "--config", s.cfg.ConfigPath)

	var logOut *os.File
	if s.cfg.LogFile != "" {
		f, err := os.Create(s.cfg.LogFile)
		if err != nil {
			s.logger.Warn("Could not open caddy log file %s: %v", s.cfg.LogFile, err)
		} else {
			logOut = f
			cmd.Stdout = f
			cmd.Stderr = f
		}
	}

	if err := cmd.Start(); err != nil {
		if logOut != nil {
			logOut.Close()
		}
		return fmt.Errorf("failed to start caddy: %w", err)
	}

	s.cmd = cmd
	s.pid = cmd.Process.Pid
	s.exited = make(chan struct{})

	if s.cfg.PIDFile != "" {
		if err := os.WriteFile(s.cfg.PIDFile, []byte(strconv.Itoa(s.pid)), 0644); err != nil {
			s.logger.Warn("Could not write caddy pid file %s: %v", s.cfg.PIDFile, err)
		}
	}

	go s.monitor(cmd, s.exited, logOut)

	s.metrics.SetCaddyStarted(true)
	s.logger.Info("Started caddy (PID: %d) with config %s", s.pid, s.cfg.ConfigPath)
	return nil
}

// monitor reaps the caddy process and logs its exit
func (s *caddyService) monitor(cmd *exec.Cmd, exited chan struct{}, logOut *os.File) {
	err := cmd.Wait()
	if logOut != nil {
		logOut.Close()
	}
	close(exited)

	if err != nil {
		s.logger.Warn("Caddy process (PID: %d) exited: %v", cmd.Process.Pid, err)
		return
	}
	s.logger.Info("Caddy process (PID: %d) exited", cmd.Process.Pid)
}

// Reload runs `caddy reload` bounded by the reload timeout. Cancellation of
// ctx is not propagated; a timed out reload process is killed.
func (s *caddyService) Reload(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ReloadTimeout)
	defer cancel()

	s.logger.Info("Gracefully reloading caddy configuration from: %s", s.cfg.ConfigPath)

	cmd := exec.CommandContext(ctx, s.cfg.Binary, "reload", "--config", s.cfg.ConfigPath)
	cmd.WaitDelay = reloadWaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		s.metrics.Reload(metrics.ReloadSuccess, elapsed)
		s.logger.Info("Caddy configuration reloaded successfully in %s", elapsed)
		if out := strings.TrimSpace(stdout.String()); out != "" {
			s.logger.Debug("Caddy reload stdout: %s", out)
		}
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.metrics.Reload(metrics.ReloadTimeout, elapsed)
		s.logger.Error("Caddy reload command timed out after %s", s.cfg.ReloadTimeout)
		return fmt.Errorf("%w after %s", ErrReloadTimeout, s.cfg.ReloadTimeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		s.metrics.Reload(metrics.ReloadFailure, elapsed)
		reloadErr := &ReloadError{
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(stderr.String()),
		}
		s.logger.Error("Caddy reload failed with exit code: %d", reloadErr.ExitCode)
		s.logger.Error("Caddy stderr: %s", reloadErr.Stderr)
		s.logger.Error("Caddy stdout: %s", strings.TrimSpace(stdout.String()))
		return reloadErr
	}

	s.metrics.Reload(metrics.ReloadError, elapsed)
	s.logger.Error("Failed to execute caddy command: %v", err)
	return fmt.Errorf("failed to execute caddy reload command: %w", err)
}

// Status reports whether a caddy pid is currently held
func (s *caddyService) Status() ProcessStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ProcessStatus{Running: s.pid != 0}
}

// Shutdown stops caddy by name, then kills the tracked child if it is still
// alive. Every failure is logged and ignored.
func (s *caddyService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	cmd, exited := s.cmd, s.exited
	s.cmd = nil
	s.pid = 0
	s.mu.Unlock()

	s.logger.Info("Stopping caddy process...")
	s.killByName(ctx)

	if cmd != nil {
		select {
		case <-exited:
		case <-time.After(100 * time.Millisecond):
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				s.logger.Warn("Failed to kill caddy (PID: %d): %v", cmd.Process.Pid, err)
			}
		}

		select {
		case <-exited:
		case <-ctx.Done():
		case <-time.After(shutdownWait):
			s.logger.Warn("Caddy (PID: %d) did not exit within %s", cmd.Process.Pid, shutdownWait)
		}
	}

	s.removePIDFile()
	s.metrics.SetCaddyStarted(false)
	s.logger.Info("Caddy process stopped.")
}

// killByName signals every process whose name is exactly the caddy binary's.
// A substring match would also hit the caddymanager process.
func (s *caddyService) killByName(ctx context.Context) {
	name := filepath.Base(s.cfg.Binary)
	if err := s.runCommand(ctx, "pkill", "-x", name); err != nil {
		// pkill exits 1 when nothing matched
		s.logger.Debug("pkill -x %s: %v", name, err)
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (s *caddyService) removePIDFile() {
	if s.cfg.PIDFile == "" {
		return
	}
	if err := os.Remove(s.cfg.PIDFile); err != nil && !os.IsNotExist(err) {
		s.logger.Debug("Could not remove pid file %s: %v", s.cfg.PIDFile, err)
	}
}

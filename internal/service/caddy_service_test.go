package service

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/osa911/caddymanager/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeCaddy writes a shell script standing in for the caddy binary.
// `run` sleeps until killed; `reload` executes reloadBody.
func writeFakeCaddy(t *testing.T, reloadBody string) (binary string, callsFile string) {
	t.Helper()
	dir := t.TempDir()
	binary = filepath.Join(dir, "fakecaddy")
	callsFile = filepath.Join(dir, "calls")

	script := "#!/bin/sh\n" +
		"echo \"$@\" >> " + callsFile + "\n" +
		"if [ \"$1\" = \"run\" ]; then\n  exec sleep 60\nfi\n" +
		"if [ \"$1\" = \"reload\" ]; then\n" + reloadBody + "\nfi\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0755))
	return binary, callsFile
}

func newTestCaddyService(t *testing.T, binary string, timeout time.Duration) CaddyService {
	t.Helper()
	dir := t.TempDir()
	return NewCaddyService(CaddyConfig{
		Binary:        binary,
		ConfigPath:    filepath.Join(dir, "Caddyfile"),
		PIDFile:       filepath.Join(dir, "caddy.pid"),
		LogFile:       filepath.Join(dir, "caddy.log"),
		ReloadTimeout: timeout,
	}, metrics.New(prometheus.NewRegistry()))
}

func TestCaddyServiceReloadSuccess(t *testing.T) {
	binary, calls := writeFakeCaddy(t, "echo reloaded\nexit 0")
	svc := newTestCaddyService(t, binary, 5*time.Second)

	require.NoError(t, svc.Reload(context.Background()))

	data, err := os.ReadFile(calls)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reload --config ")
}

func TestCaddyServiceReloadFailure(t *testing.T) {
	binary, _ := writeFakeCaddy(t, "echo 'adapting config: unrecognized directive' >&2\nexit 3")
	svc := newTestCaddyService(t, binary, 5*time.Second)

	err := svc.Reload(context.Background())
	require.Error(t, err)

	var reloadErr *ReloadError
	require.True(t, errors.As(err, &reloadErr))
	assert.Equal(t, 3, reloadErr.ExitCode)
	assert.Equal(t, "adapting config: unrecognized directive", reloadErr.Stderr)
	assert.Contains(t, err.Error(), "exit code: 3")
	assert.False(t, errors.Is(err, ErrReloadTimeout))
}

func TestCaddyServiceReloadTimeout(t *testing.T) {
	binary, _ := writeFakeCaddy(t, "exec sleep 30")
	svc := newTestCaddyService(t, binary, 200*time.Millisecond)

	start := time.Now()
	err := svc.Reload(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReloadTimeout)

	var reloadErr *ReloadError
	assert.False(t, errors.As(err, &reloadErr))
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestCaddyServiceReloadIgnoresCallerCancellation(t *testing.T) {
	binary, _ := writeFakeCaddy(t, "sleep 0.2\nexit 0")
	svc := newTestCaddyService(t, binary, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, svc.Reload(ctx))
}

func TestCaddyServiceReloadMissingBinary(t *testing.T) {
	svc := newTestCaddyService(t, filepath.Join(t.TempDir(), "does-not-exist"), time.Second)

	err := svc.Reload(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrReloadTimeout))
	assert.Contains(t, err.Error(), "failed to execute caddy reload command")
}

func TestCaddyServiceStartStatusShutdown(t *testing.T) {
	binary, calls := writeFakeCaddy(t, "exit 0")
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "caddy.pid")
	logFile := filepath.Join(dir, "caddy.log")
	require.NoError(t, os.WriteFile(logFile, []byte("stale log"), 0644))

	svc := NewCaddyService(CaddyConfig{
		Binary:     binary,
		ConfigPath: filepath.Join(dir, "Caddyfile"),
		PIDFile:    pidFile,
		LogFile:    logFile,
	}, nil)

	assert.False(t, svc.Status().Running)

	require.NoError(t, svc.Start(context.Background()))
	assert.True(t, svc.Status().Running)

	pid, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(string(pid)))

	logData, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(logData), "stale log")

	// A second start is refused while the handle is held
	assert.Error(t, svc.Start(context.Background()))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(calls)
		return err == nil && strings.Contains(string(data), "run --config")
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc.Shutdown(ctx)

	assert.False(t, svc.Status().Running)
	_, err = os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestCaddyServiceStartMissingBinary(t *testing.T) {
	svc := newTestCaddyService(t, filepath.Join(t.TempDir(), "does-not-exist"), time.Second)

	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.False(t, svc.Status().Running)
}

func TestCaddyServiceShutdownWithoutStart(t *testing.T) {
	binary, _ := writeFakeCaddy(t, "exit 0")
	svc := newTestCaddyService(t, binary, time.Second)

	svc.Shutdown(context.Background())
	assert.False(t, svc.Status().Running)
}

func TestCaddyServiceKillsByExactName(t *testing.T) {
	binary, _ := writeFakeCaddy(t, "exit 0")
	svc := newTestCaddyService(t, binary, time.Second).(*caddyService)

	var mu sync.Mutex
	var commands [][]string
	svc.runCommand = func(ctx context.Context, name string, args ...string) error {
		mu.Lock()
		defer mu.Unlock()
		commands = append(commands, append([]string{name}, args...))
		return nil
	}

	require.NoError(t, svc.Start(context.Background()))
	svc.Shutdown(context.Background())

	mu.Lock()
	defer mu.Unlock()
	want := []string{"pkill", "-x", "fakecaddy"}
	assert.Equal(t, [][]string{want, want}, commands)
}

func TestCaddyServiceSparesProcessesContainingBinaryName(t *testing.T) {
	if _, err := exec.LookPath("pkill"); err != nil {
		t.Skip("pkill not available")
	}

	// Stands in for caddymanager: its process name contains the caddy binary name
	dir := t.TempDir()
	manager := filepath.Join(dir, "fakecaddymgr")
	require.NoError(t, os.WriteFile(manager, []byte("#!/bin/sh\nwhile :; do sleep 1; done\n"), 0755))

	bystander := exec.Command(manager)
	require.NoError(t, bystander.Start())
	exited := make(chan struct{})
	go func() {
		_ = bystander.Wait()
		close(exited)
	}()
	t.Cleanup(func() {
		_ = bystander.Process.Kill()
		<-exited
	})

	binary, _ := writeFakeCaddy(t, "exit 0")
	svc := newTestCaddyService(t, binary, time.Second)

	require.NoError(t, svc.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc.Shutdown(ctx)

	select {
	case <-exited:
		t.Fatal("process with a longer name containing the caddy binary name was killed")
	case <-time.After(200 * time.Millisecond):
	}
}

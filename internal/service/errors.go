package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for service layer
var (
	ErrConflict      = errors.New("conflict error")
	ErrReloadTimeout = errors.New("caddy reload command timed out")
)

// ReloadError is returned when the caddy reload command exits non-zero
type ReloadError struct {
	ExitCode int
	Stderr   string
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("failed to reload caddy (exit code: %d): %s", e.ExitCode, e.Stderr)
}

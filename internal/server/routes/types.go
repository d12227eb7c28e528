package routes

import (
	"github.com/osa911/caddymanager/internal/api/handlers"
)

// Handlers contains all the route handlers
type Handlers struct {
	Health *handlers.HealthHandler
	Host   *handlers.HostHandler
}

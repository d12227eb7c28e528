package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/api/handlers"
)

// SetupHealthRoutes configures health and version endpoints
func SetupHealthRoutes(api *gin.RouterGroup, health *handlers.HealthHandler) {
	api.GET("/health", health.Check)
	api.GET("/version", handlers.GetVersion)
}

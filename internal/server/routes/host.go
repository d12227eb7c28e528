package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/api/handlers"
)

// SetupHostRoutes configures the reverse-proxy host endpoints
func SetupHostRoutes(api *gin.RouterGroup, host *handlers.HostHandler) {
	hosts := api.Group("/hosts")
	{
		hosts.GET("", host.ListHosts)
		hosts.POST("", host.CreateHost)
		hosts.DELETE("/:name", host.DeleteHost)
	}
}

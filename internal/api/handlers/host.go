package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/api/validation"
	"github.com/osa911/caddymanager/internal/logging"
	"github.com/osa911/caddymanager/internal/models"
	"github.com/osa911/caddymanager/internal/service"
	"github.com/osa911/caddymanager/internal/utils"
)

// HostHandler handles reverse-proxy host HTTP requests
type HostHandler struct {
	hostService service.HostService
}

// NewHostHandler creates a new host handler instance
func NewHostHandler(hostService service.HostService) *HostHandler {
	return &HostHandler{
		hostService: hostService,
	}
}

// ListHosts returns every host found in the Caddyfile
func (h *HostHandler) ListHosts(c *gin.Context) {
	hosts, err := h.hostService.List(c.Request.Context())
	if err != nil {
		logging.GetGlobalLogger().Error("ListHosts: Failed to list hosts, error: %v", err)
		utils.HandleAPIError(c, err, "Failed to list hosts")
		return
	}

	utils.HandleSuccess(c, hosts)
}

// CreateHost adds a host and reloads caddy
func (h *HostHandler) CreateHost(c *gin.Context) {
	var req models.Host
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.GetGlobalLogger().Error("CreateHost: Invalid request data: %+v, error: %v", req, err)
		utils.HandleValidationError(c, err, validation.FormatValidationError(err))
		return
	}

	if err := h.hostService.Add(c.Request.Context(), req); err != nil {
		logging.GetGlobalLogger().Error("CreateHost: Failed to add host %s, error: %v", req.Name, err)
		utils.HandleAPIError(c, err, "Failed to add host")
		return
	}

	utils.HandleCreated(c, req)
}

// DeleteHost removes a host by name and reloads caddy
func (h *HostHandler) DeleteHost(c *gin.Context) {
	name := c.Param("name")

	if err := h.hostService.Remove(c.Request.Context(), name); err != nil {
		logging.GetGlobalLogger().Error("DeleteHost: Failed to remove host %s, error: %v", name, err)
		utils.HandleAPIError(c, err, "Failed to remove host")
		return
	}

	utils.HandleNoContent(c)
}

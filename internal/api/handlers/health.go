package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/api/dto/common"
	"github.com/osa911/caddymanager/internal/service"
	"github.com/osa911/caddymanager/internal/utils"
)

type HealthHandler struct {
	caddy service.CaddyService
}

func NewHealthHandler(caddy service.CaddyService) *HealthHandler {
	return &HealthHandler{caddy: caddy}
}

// Check reports whether a caddy process handle was captured at startup
func (h *HealthHandler) Check(c *gin.Context) {
	utils.HandleSuccess(c, common.HealthResponse{
		Status:       "ok",
		CaddyRunning: h.caddy.Status().Running,
	})
}

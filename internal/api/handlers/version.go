package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/utils"
	"github.com/osa911/caddymanager/internal/version"
)

// GetVersion returns the build information of the running server
func GetVersion(c *gin.Context) {
	utils.HandleSuccess(c, version.GetBuildInfo())
}

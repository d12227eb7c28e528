package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/logging"
	"github.com/osa911/caddymanager/internal/utils"
)

// RequestLogger is a middleware that logs request information.
// It is a no-op unless enabled.
func RequestLogger(logger *logging.Logger, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.LogHTTPRequest(
			c.Request.Method,
			path,
			utils.GetRealIP(c),
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).String(),
		)
	}
}

package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// GetRealIP returns the client address of a request. The API normally sits
// behind the caddy instance it manages, so the proxy headers are preferred
// over the socket address.
func GetRealIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}

	// Leftmost entry of "client, proxy1, proxy2"
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		client, _, _ := strings.Cut(forwarded, ",")
		if client = strings.TrimSpace(client); client != "" {
			return client
		}
	}

	return c.ClientIP()
}

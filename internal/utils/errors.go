package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/osa911/caddymanager/internal/api/dto/common"
	"github.com/osa911/caddymanager/internal/caddy"
	"github.com/osa911/caddymanager/internal/logging"
	"github.com/osa911/caddymanager/internal/service"
)

// HandleAPIError maps a service error onto a status code and writes the
// error envelope. The underlying error text is returned verbatim.
func HandleAPIError(c *gin.Context, err error, message string) {
	status, code := classifyError(err)

	logging.GetGlobalLogger().LogHTTPError(
		c.Request.Method,
		c.Request.URL.Path,
		GetRealIP(c),
		status,
		message,
		err,
	)

	c.AbortWithStatusJSON(status, common.NewErrorResponse(code, err.Error(), nil))
}

// HandleValidationError writes a 400 with the per-field details
func HandleValidationError(c *gin.Context, err error, details interface{}) {
	logging.GetGlobalLogger().LogHTTPError(
		c.Request.Method,
		c.Request.URL.Path,
		GetRealIP(c),
		http.StatusBadRequest,
		"Invalid request data",
		err,
	)

	c.AbortWithStatusJSON(http.StatusBadRequest, common.NewErrorResponse(common.ErrCodeValidation, err.Error(), details))
}

func classifyError(err error) (int, common.ErrorCode) {
	var reloadErr *service.ReloadError
	switch {
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, common.ErrCodeConflict
	case errors.Is(err, service.ErrReloadTimeout):
		return http.StatusInternalServerError, common.ErrCodeReloadTimeout
	case errors.As(err, &reloadErr):
		return http.StatusInternalServerError, common.ErrCodeReloadFailed
	case errors.Is(err, caddy.ErrInvalidConfig):
		return http.StatusInternalServerError, common.ErrCodeInvalidConfig
	default:
		return http.StatusInternalServerError, common.ErrCodeInternalServer
	}
}

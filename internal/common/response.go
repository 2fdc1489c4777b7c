// File: internal/common/response.go
package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerContextKey is where request-scoped loggers are stored in the gin context.
const LoggerContextKey = "logger"

// RespondWithError sends a JSON error response. Raw text of unclassified errors is
// never sent to the client.
func RespondWithError(c *gin.Context, err error) {
	apiErr := ToAPIError(err)
	if apiErr == ErrInternalServer {
		ContextLogger(c, zap.NewNop()).Error("Unhandled internal error being wrapped", zap.Error(err))
	}
	c.Set(ErrorCodeKey, apiErr.Code)
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}

// ContextLogger returns the request-scoped logger stored by the logging middleware,
// or fallback outside a request.
func ContextLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Get(LoggerContextKey); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return fallback
}

// RespondOK sends a 200 OK response with the given body as-is.
func RespondOK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// RespondNoContent sends a 204 No Content response.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

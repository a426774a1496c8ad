package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"property-portal/internal/apperr"
)

const loggerKey = "logger"

// AbortWithError writes the JSON error body for err and stops the chain.
// Internal errors are logged and replaced by a generic message.
func AbortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	body := gin.H{"error": publicMessage(err)}
	if kind == apperr.KindInternal {
		LoggerFrom(c).ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		body = gin.H{"error": "internal server error"}
	} else if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(kind.HTTPStatus(), body)
}

// publicMessage drops the call-site prefixes added by fmt.Errorf wrapping.
func publicMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// LoggerFrom returns the request scoped logger set by RequestLogger.
func LoggerFrom(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

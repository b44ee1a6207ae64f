package middleware

import (
	"io"
	"net/http"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

const slowRequest = 2 * time.Second

// LoggingMiddleware sends gin's access log through the structured logger.
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			ctx := param.Request.Context()

			var entry *logger.Entry
			switch {
			case param.StatusCode >= http.StatusInternalServerError:
				entry = logger.ErrorWithContext(ctx, "Server error")
			case param.StatusCode >= http.StatusBadRequest:
				entry = logger.WarnWithContext(ctx, "Client error")
			case param.Latency > slowRequest:
				entry = logger.WarnWithContext(ctx, "Slow request")
			default:
				entry = logger.InfoWithContext(ctx, "Request completed")
			}

			entry.Method(param.Method).
				Path(param.Path).
				StatusCode(param.StatusCode).
				Duration(param.Latency).
				Int("response_size", param.BodySize)
			if param.ErrorMessage != "" {
				entry.String("error", param.ErrorMessage)
			}
			entry.Log()

			return ""
		},
		Output: io.Discard,
		SkipPaths: []string{
			"/metrics",
		},
	})
}

// RecoveryMiddleware turns a panic into a 500 envelope.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(recovered)

		c.AbortWithStatusJSON(http.StatusInternalServerError,
			constants.BuildErrorResponse(constants.MsgInternalError, apperrors.CodeInternal, nil))
	})
}

package middleware

import (
	"context"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextMiddleware stamps the request context with the request id, client
// address and device id the logger picks up, and bounds it with timeout.
func ContextMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.WithRequestInfo(c.Request.Context(), requestID, c.ClientIP(), c.GetHeader(constants.HeaderUserAgent))
		if correlationID := c.GetHeader(constants.HeaderXCorrelationID); correlationID != "" {
			ctx = context.WithValue(ctx, ctxutil.CorrelationIDKey, correlationID)
		}
		if deviceID := c.GetHeader(constants.HeaderDeviceID); deviceID != "" {
			ctx = context.WithValue(ctx, ctxutil.DeviceIDKey, deviceID)
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderXRequestID, requestID)
		c.Next()
	}
}

package middleware

import (
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured origins. A "*" entry allows any origin, in which
// case credentials are not allowed.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			constants.HeaderContentType,
			constants.HeaderAuthorization,
			constants.HeaderXRequestID,
			constants.HeaderXCorrelationID,
			constants.HeaderDeviceID,
			constants.HeaderDeviceType,
			constants.HeaderDeviceToken,
		},
		ExposeHeaders: []string{constants.HeaderXRequestID},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			break
		}
	}
	if !c.AllowAllOrigins {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = true
	}

	return cors.New(c)
}

package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(version *gin.RouterGroup) {
	jwt := version.Group("/auth/jwt")
	{
		jwt.POST("/create", r.authHandler.Create)
		jwt.POST("/refresh", r.authHandler.Refresh)
		jwt.POST("/revoke", r.authHandler.Revoke)
		jwt.POST("/verify", r.authHandler.Verify)
	}
}

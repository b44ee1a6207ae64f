package router

import "github.com/gin-gonic/gin"

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		// Public routes
		users.POST("", r.userHandler.Register)
		users.POST("/verify_email", r.userHandler.ConfirmEmailVerification)
		users.POST("/reset_password", r.userHandler.ResetPassword)
		users.POST("/reset_password_verify", r.userHandler.ResetPasswordVerify)
		users.POST("/reset_password_confirm", r.userHandler.ResetPasswordConfirm)

		// Anonymous callers pass ?email=
		users.GET("/verify_email", r.jwtMw.OptionalAuth(), r.userHandler.RequestEmailVerification)

		protected := users.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("", r.jwtMw.RequireStaff(), r.userHandler.List)
			protected.GET("/me", r.userHandler.Me)
			protected.PUT("/me", r.userHandler.UpdateMe)
			protected.POST("/change_password", r.userHandler.ChangePassword)
			protected.GET("/:id", r.userHandler.Get)
			protected.GET("/:id/profile", r.userHandler.Profile)
		}
	}
}

package routes

import "github.com/gin-gonic/gin"

// AuthRoutes sets up the identity-account routes.
func AuthRoutes(r *gin.Engine, d Deps) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", d.Auth.Register)
		auth.POST("/login", d.Auth.Login)
	}
}

package routes

import (
	"civicalert-be/middlewares"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the user and staff management routes.
func UserRoutes(r *gin.Engine, d Deps) {
	gate := middlewares.AuthGate(d.Verifier)
	active := middlewares.RequireActive(d.Users)
	admin := middlewares.RequireAdmin(d.Users)

	r.POST("/users", gate, d.UsersC.Register)
	r.GET("/users", gate, admin, d.UsersC.ListUsers)
	r.GET("/users/staff", gate, admin, d.UsersC.ListStaff)
	r.GET("/users/:email", gate, active, d.UsersC.GetUser)

	r.POST("/users/staff", gate, admin, d.UsersC.CreateStaff)
	r.PUT("/users/staff/:id", gate, admin, d.UsersC.UpdateStaff)
	r.DELETE("/users/staff/:id", gate, admin, d.UsersC.DeleteStaff)
	r.PATCH("/users/block/:id", gate, admin, d.UsersC.BlockUser)
}

package routes

import (
	"civicalert-be/middlewares"

	"github.com/gin-gonic/gin"
)

// StatsRoutes sets up the dashboard routes.
func StatsRoutes(r *gin.Engine, d Deps) {
	gate := middlewares.AuthGate(d.Verifier)
	active := middlewares.RequireActive(d.Users)
	admin := middlewares.RequireAdmin(d.Users)
	staff := middlewares.RequireStaff(d.Users)

	r.GET("/staff-stats/:email", gate, staff, d.Stats.StaffStats)
	r.GET("/citizen-stats/:email", gate, active, d.Stats.CitizenStats)
	r.GET("/admin-stats", gate, admin, d.Stats.AdminStats)
}

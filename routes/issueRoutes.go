package routes

import (
	"civicalert-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes.
func IssueRoutes(r *gin.Engine, d Deps) {
	gate := middlewares.AuthGate(d.Verifier)
	active := middlewares.RequireActive(d.Users)
	admin := middlewares.RequireAdmin(d.Users)
	staff := middlewares.RequireStaff(d.Users)

	r.POST("/issues", gate, active, middlewares.IssueRateLimiter(d.Redis, d.Cfg.IssueDailyLimit), d.Issues.Create)
	r.GET("/issues", gate, d.Issues.List)
	r.GET("/issues/:id", gate, d.Issues.Get)
	r.GET("/issues/:id/upvote-status", gate, d.Issues.UpvoteStatus)
	r.PATCH("/issues/upvote/:id", gate, active, d.Issues.Upvote)
	r.PATCH("/issues/:id", gate, active, d.Issues.Update)
	r.DELETE("/issues/:id", gate, active, d.Issues.Delete)
	r.PATCH("/issues/assign/:id", gate, admin, d.Issues.Assign)
	r.PATCH("/issues/reject/:id", gate, admin, d.Issues.RejectIssue)
	r.PATCH("/issues/status/:id", gate, staff, d.Issues.SetStatus)

	r.GET("/my-issues/:email", gate, d.Issues.MyIssues)
	r.GET("/assigned-issues/:email", gate, staff, d.Issues.AssignedIssues)
}

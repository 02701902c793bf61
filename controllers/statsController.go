package controllers

import (
	"context"
	"net/http"

	"civicalert-be/middlewares"
	"civicalert-be/models"
	"civicalert-be/store"

	"github.com/gin-gonic/gin"
)

// StatsIssueStore provides the issue aggregations the dashboards need.
type StatsIssueStore interface {
	StaffStats(ctx context.Context, email string) (store.StaffIssueStats, error)
	CitizenStats(ctx context.Context, email string) (store.CitizenIssueStats, error)
	Totals(ctx context.Context) (store.IssueTotals, error)
}

// StatsUserStore provides the account counts for the admin dashboard.
type StatsUserStore interface {
	Counts(ctx context.Context) (store.UserCounts, error)
}

// StatsPaymentStore provides the revenue roll-up for the admin dashboard.
type StatsPaymentStore interface {
	Summary(ctx context.Context) (store.PaymentSummary, error)
}

type StatsController struct {
	issues   StatsIssueStore
	users    StatsUserStore
	payments StatsPaymentStore
}

func NewStatsController(issues StatsIssueStore, users StatsUserStore, payments StatsPaymentStore) *StatsController {
	return &StatsController{issues: issues, users: users, payments: payments}
}

// StaffStats handles GET /staff-stats/:email.
func (sc *StatsController) StaffStats(c *gin.Context) {
	email := c.Param("email")
	caller := middlewares.Caller(c)
	if caller.Email != email && caller.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	stats, err := sc.issues.StaffStats(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CitizenStats handles GET /citizen-stats/:email.
func (sc *StatsController) CitizenStats(c *gin.Context) {
	email := c.Param("email")
	caller := middlewares.Caller(c)
	if caller.Email != email && caller.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	stats, err := sc.issues.CitizenStats(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminStats handles GET /admin-stats (admin).
func (sc *StatsController) AdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	issues, err := sc.issues.Totals(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}
	users, err := sc.users.Counts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}
	payments, err := sc.payments.Summary(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issues":   issues,
		"users":    users,
		"payments": payments,
	})
}

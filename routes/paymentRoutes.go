package routes

import (
	"civicalert-be/middlewares"

	"github.com/gin-gonic/gin"
)

// PaymentRoutes sets up the checkout and payment-record routes.
func PaymentRoutes(r *gin.Engine, d Deps) {
	gate := middlewares.AuthGate(d.Verifier)
	active := middlewares.RequireActive(d.Users)
	admin := middlewares.RequireAdmin(d.Users)

	r.POST("/create-checkout-session", gate, active, d.Payments.CreateCheckoutSession)
	r.POST("/payment-success", gate, d.Payments.PaymentSuccess)
	r.GET("/payments", gate, admin, d.Payments.ListPayments)
}

package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"civicalert-be/config"
	"civicalert-be/models"
	"civicalert-be/payments"

	"github.com/gin-gonic/gin"
)

// Checkout drives payment sessions from creation to confirmed completion.
type Checkout interface {
	BeginCheckout(ctx context.Context, req payments.CheckoutRequest) (string, error)
	Confirm(ctx context.Context, sessionID string) error
}

// PaymentLister reads recorded payments.
type PaymentLister interface {
	List(ctx context.Context) ([]models.Payment, error)
}

type PaymentController struct {
	checkout            Checkout
	payments            PaymentLister
	trustClientIdentity bool
}

func NewPaymentController(checkout Checkout, lister PaymentLister, cfg *config.Config) *PaymentController {
	return &PaymentController{
		checkout:            checkout,
		payments:            lister,
		trustClientIdentity: cfg.TrustClientIdentity,
	}
}

// CreateCheckoutSession handles POST /create-checkout-session.
func (pc *PaymentController) CreateCheckoutSession(c *gin.Context) {
	var input struct {
		Price         int64                `json:"price"`
		Amount        int64                `json:"amount"`
		PaymentType   string               `json:"paymentType" binding:"required"`
		CustomerEmail string               `json:"customerEmail"`
		CustomerName  string               `json:"customerName"`
		CardToken     string               `json:"cardToken"`
		IssueID       string               `json:"issueId"`
		IssueData     *payments.IssueDraft `json:"issueData"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	email, ok := resolveIdentity(c, input.CustomerEmail, pc.trustClientIdentity)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "customerEmail does not match the authenticated user"})
		return
	}

	url, err := pc.checkout.BeginCheckout(c.Request.Context(), payments.CheckoutRequest{
		Amount:        input.Amount,
		Price:         input.Price,
		PaymentType:   models.PaymentType(input.PaymentType),
		CustomerEmail: email,
		CustomerName:  input.CustomerName,
		CardToken:     input.CardToken,
		IssueID:       input.IssueID,
		IssueDraft:    input.IssueData,
	})
	if err != nil {
		log.Println("Checkout session creation failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// PaymentSuccess handles POST /payment-success. Duplicate notifications for
// an already-recorded transaction succeed without reapplying side effects.
func (pc *PaymentController) PaymentSuccess(c *gin.Context) {
	var input struct {
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := pc.checkout.Confirm(c.Request.Context(), input.SessionID); err != nil {
		if errors.Is(err, payments.ErrNotPaid) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Payment not completed"})
			return
		}
		log.Println("Payment confirmation failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to confirm payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListPayments handles GET /payments (admin).
func (pc *PaymentController) ListPayments(c *gin.Context) {
	records, err := pc.payments.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve payments"})
		return
	}
	c.JSON(http.StatusOK, records)
}

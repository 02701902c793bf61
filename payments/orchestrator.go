// Package payments holds the checkout orchestration: session creation with
// intent metadata, and idempotent completion handling.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicalert-be/models"
	"civicalert-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotPaid is returned when a completion callback references a session the
// provider does not consider paid.
var ErrNotPaid = errors.New("payment session is not paid")

// defaultAmount is the provider minimum in minor units, used when neither an
// amount nor a price was supplied.
const defaultAmount = 100

// PaymentRecorder records a payment exactly once per transaction id.
type PaymentRecorder interface {
	InsertIfAbsent(ctx context.Context, payment models.Payment) error
}

// IssueWriter covers the issue mutations checkout needs: drafting a new
// issue at checkout time and promoting one on confirmed payment.
type IssueWriter interface {
	Create(ctx context.Context, issue models.Issue) (primitive.ObjectID, error)
	Promote(ctx context.Context, id string) error
}

// PremiumGranter flips the paying user's premium flag.
type PremiumGranter interface {
	SetPremium(ctx context.Context, email string, premium bool) error
}

// IssueDraft is the optional issue data submitted with a combined
// new-issue-plus-boost checkout.
type IssueDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Image       string `json:"image"`
}

// CheckoutRequest is one begin-checkout call.
type CheckoutRequest struct {
	Amount        int64
	Price         int64
	PaymentType   models.PaymentType
	CustomerEmail string
	CustomerName  string
	CardToken     string
	IssueID       string
	IssueDraft    *IssueDraft
}

// Orchestrator drives a payment attempt from session creation (Initiated)
// through the completion callback (Recorded). An abandoned session leaves no
// local trace beyond an optional draft issue.
type Orchestrator struct {
	gateway    Gateway
	payments   PaymentRecorder
	issues     IssueWriter
	users      PremiumGranter
	siteOrigin string
}

func NewOrchestrator(gateway Gateway, payments PaymentRecorder, issues IssueWriter, users PremiumGranter, siteOrigin string) *Orchestrator {
	return &Orchestrator{
		gateway:    gateway,
		payments:   payments,
		issues:     issues,
		users:      users,
		siteOrigin: siteOrigin,
	}
}

// resolveAmount applies the precedence: explicit amount, then price in major
// units, then the provider minimum.
func resolveAmount(amount, price int64) int64 {
	if amount > 0 {
		return amount
	}
	if price > 0 {
		return price * 100
	}
	return defaultAmount
}

// BeginCheckout creates a provider session describing the payment intent and
// returns the redirect URL. A new-issue boost without an issue id first
// drafts the issue with paymentStatus Pending; a session that never
// completes leaves that draft behind.
func (o *Orchestrator) BeginCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.PaymentType != models.PaymentSubscription && req.PaymentType != models.PaymentIssuePromotion {
		return "", fmt.Errorf("unknown payment type %q", req.PaymentType)
	}

	metadata := map[string]interface{}{
		"paymentType": string(req.PaymentType),
		"email":       req.CustomerEmail,
		"name":        req.CustomerName,
	}

	if req.PaymentType == models.PaymentIssuePromotion {
		issueID := req.IssueID
		if issueID == "" {
			if req.IssueDraft == nil {
				return "", fmt.Errorf("issue promotion needs an issue id or issue data")
			}
			d := req.IssueDraft
			issue := models.NewIssue(d.Title, d.Description, d.Category, d.Location, d.Image,
				models.PriorityNormal, req.CustomerEmail)
			issue.PaymentStatus = models.PaymentPending
			id, err := o.issues.Create(ctx, issue)
			if err != nil {
				return "", err
			}
			issueID = id.Hex()
		}
		metadata["issueId"] = issueID
	}

	session, err := o.gateway.CreateSession(ctx, SessionRequest{
		Amount:      resolveAmount(req.Amount, req.Price),
		Currency:    "thb",
		Description: "CivicAlert " + string(req.PaymentType),
		CardToken:   req.CardToken,
		ReturnURI:   o.siteOrigin + "/payment-success",
		Metadata:    metadata,
	})
	if err != nil {
		return "", err
	}

	return session.RedirectURL, nil
}

// Confirm processes a completion callback. The session is re-fetched from
// the provider, never trusted from the client. Recording happens-before the
// side effect via the atomic insert keyed by transaction id, so however many
// callbacks arrive for one transaction, exactly one payment record exists
// and the side effect runs exactly once.
func (o *Orchestrator) Confirm(ctx context.Context, sessionID string) error {
	session, err := o.gateway.FetchSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.Paid {
		return ErrNotPaid
	}

	transactionID := session.TransactionID
	if transactionID == "" {
		transactionID = session.ID
	}

	paymentType := models.PaymentType(metaString(session.Metadata, "paymentType"))
	email := metaString(session.Metadata, "email")

	payment := models.Payment{
		TransactionID: transactionID,
		Email:         email,
		Name:          metaString(session.Metadata, "name"),
		Amount:        session.Amount,
		Date:          time.Now(),
		Type:          paymentType,
		Status:        session.Status,
	}

	if err := o.payments.InsertIfAbsent(ctx, payment); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Already recorded; the side effect has run or is running.
			return nil
		}
		return err
	}

	switch paymentType {
	case models.PaymentSubscription:
		return o.users.SetPremium(ctx, email, true)
	case models.PaymentIssuePromotion:
		return o.issues.Promote(ctx, metaString(session.Metadata, "issueId"))
	default:
		return fmt.Errorf("unknown payment type %q in session metadata", paymentType)
	}
}

func metaString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	s, _ := metadata[key].(string)
	return s
}

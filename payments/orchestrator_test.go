package payments

import (
	"context"
	"sync"
	"testing"

	"civicalert-be/models"
	"civicalert-be/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeGateway struct {
	created  []SessionRequest
	sessions map[string]Session
}

func (g *fakeGateway) CreateSession(_ context.Context, req SessionRequest) (Session, error) {
	g.created = append(g.created, req)
	return Session{ID: "chrg_1", RedirectURL: "https://pay.example/chrg_1"}, nil
}

func (g *fakeGateway) FetchSession(_ context.Context, id string) (Session, error) {
	return g.sessions[id], nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *fakeRecorder) InsertIfAbsent(_ context.Context, p models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	if r.seen[p.TransactionID] {
		return store.ErrDuplicate
	}
	r.seen[p.TransactionID] = true
	return nil
}

type fakeIssues struct {
	mu       sync.Mutex
	created  []models.Issue
	promoted []string
}

func (f *fakeIssues) Create(_ context.Context, issue models.Issue) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, issue)
	return issue.ID, nil
}

func (f *fakeIssues) Promote(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promoted = append(f.promoted, id)
	return nil
}

type fakeUsers struct {
	mu      sync.Mutex
	granted []string
}

func (f *fakeUsers) SetPremium(_ context.Context, email string, premium bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if premium {
		f.granted = append(f.granted, email)
	}
	return nil
}

func newTestOrchestrator(gw *fakeGateway) (*Orchestrator, *fakeRecorder, *fakeIssues, *fakeUsers) {
	rec := &fakeRecorder{}
	issues := &fakeIssues{}
	users := &fakeUsers{}
	return NewOrchestrator(gw, rec, issues, users, "https://civicalert.example"), rec, issues, users
}

func TestResolveAmountPrecedence(t *testing.T) {
	assert.Equal(t, int64(5000), resolveAmount(5000, 20))
	assert.Equal(t, int64(2000), resolveAmount(0, 20))
	assert.Equal(t, int64(100), resolveAmount(0, 0))
}

func TestBeginCheckoutSubscriptionMetadata(t *testing.T) {
	gw := &fakeGateway{}
	o, _, issues, _ := newTestOrchestrator(gw)

	url, err := o.BeginCheckout(context.Background(), CheckoutRequest{
		Price:         20,
		PaymentType:   models.PaymentSubscription,
		CustomerEmail: "a@x.com",
		CustomerName:  "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/chrg_1", url)

	require.Len(t, gw.created, 1)
	req := gw.created[0]
	assert.Equal(t, int64(2000), req.Amount)
	assert.Equal(t, "subscription", req.Metadata["paymentType"])
	assert.Equal(t, "a@x.com", req.Metadata["email"])
	assert.Equal(t, "https://civicalert.example/payment-success", req.ReturnURI)
	assert.Empty(t, issues.created)
}

func TestBeginCheckoutDraftsIssueWhenNoneSupplied(t *testing.T) {
	gw := &fakeGateway{}
	o, _, issues, _ := newTestOrchestrator(gw)

	_, err := o.BeginCheckout(context.Background(), CheckoutRequest{
		Amount:        1000,
		PaymentType:   models.PaymentIssuePromotion,
		CustomerEmail: "a@x.com",
		IssueDraft: &IssueDraft{
			Title:       "Pothole",
			Description: "deep",
			Category:    "Road",
			Location:    "5th Ave",
		},
	})
	require.NoError(t, err)

	require.Len(t, issues.created, 1)
	draft := issues.created[0]
	assert.Equal(t, models.StatusPending, draft.Status)
	assert.Equal(t, models.PaymentPending, draft.PaymentStatus)
	assert.Equal(t, models.PriorityNormal, draft.Priority)
	assert.Equal(t, "a@x.com", draft.CreatedBy)

	require.Len(t, gw.created, 1)
	assert.Equal(t, draft.ID.Hex(), gw.created[0].Metadata["issueId"])
}

func TestBeginCheckoutPromotionNeedsIssue(t *testing.T) {
	gw := &fakeGateway{}
	o, _, _, _ := newTestOrchestrator(gw)

	_, err := o.BeginCheckout(context.Background(), CheckoutRequest{
		PaymentType:   models.PaymentIssuePromotion,
		CustomerEmail: "a@x.com",
	})
	assert.Error(t, err)
	assert.Empty(t, gw.created)
}

func TestConfirmRejectsUnpaidSession(t *testing.T) {
	gw := &fakeGateway{sessions: map[string]Session{
		"chrg_1": {ID: "chrg_1", Paid: false},
	}}
	o, rec, _, _ := newTestOrchestrator(gw)

	err := o.Confirm(context.Background(), "chrg_1")
	assert.ErrorIs(t, err, ErrNotPaid)
	assert.Empty(t, rec.seen)
}

func TestConfirmSubscriptionGrantsPremiumOnce(t *testing.T) {
	gw := &fakeGateway{sessions: map[string]Session{
		"chrg_1": {
			ID:            "chrg_1",
			TransactionID: "trxn_1",
			Amount:        2000,
			Status:        "successful",
			Paid:          true,
			Metadata: map[string]interface{}{
				"paymentType": "subscription",
				"email":       "a@x.com",
				"name":        "Ana",
			},
		},
	}}
	o, rec, _, users := newTestOrchestrator(gw)

	require.NoError(t, o.Confirm(context.Background(), "chrg_1"))
	require.NoError(t, o.Confirm(context.Background(), "chrg_1"))

	assert.Len(t, rec.seen, 1)
	assert.Equal(t, []string{"a@x.com"}, users.granted)
}

func TestConfirmPromotionAppliesSideEffectExactlyOnce(t *testing.T) {
	gw := &fakeGateway{sessions: map[string]Session{
		"chrg_9": {
			ID:            "chrg_9",
			TransactionID: "trxn_9",
			Amount:        1000,
			Status:        "successful",
			Paid:          true,
			Metadata: map[string]interface{}{
				"paymentType": "issue_promotion",
				"email":       "a@x.com",
				"issueId":     "64f000000000000000000001",
			},
		},
	}}
	o, rec, issues, _ := newTestOrchestrator(gw)

	// Duplicate completion notifications, including concurrent ones.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = o.Confirm(context.Background(), "chrg_9")
		}()
	}
	wg.Wait()

	assert.Len(t, rec.seen, 1)
	assert.Equal(t, []string{"64f000000000000000000001"}, issues.promoted)
}

func TestConfirmFallsBackToSessionIDWithoutTransaction(t *testing.T) {
	gw := &fakeGateway{sessions: map[string]Session{
		"chrg_2": {
			ID:     "chrg_2",
			Amount: 100,
			Status: "successful",
			Paid:   true,
			Metadata: map[string]interface{}{
				"paymentType": "subscription",
				"email":       "b@x.com",
			},
		},
	}}
	o, rec, _, _ := newTestOrchestrator(gw)

	require.NoError(t, o.Confirm(context.Background(), "chrg_2"))
	assert.True(t, rec.seen["chrg_2"])
}

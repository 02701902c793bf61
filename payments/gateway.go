package payments

import (
	"context"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// SessionRequest describes one checkout session to create at the provider.
type SessionRequest struct {
	Amount      int64 // minor units
	Currency    string
	Description string
	CardToken   string
	ReturnURI   string
	Metadata    map[string]interface{}
}

// Session is the provider's view of a checkout, both at creation and when
// re-fetched on completion. TransactionID is only set once the session paid.
type Session struct {
	ID            string
	RedirectURL   string
	TransactionID string
	Amount        int64
	Status        string
	Paid          bool
	Metadata      map[string]interface{}
}

// Gateway is the payment-session provider. FetchSession returns the
// authoritative session state; completion is never taken from the client.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	FetchSession(ctx context.Context, sessionID string) (Session, error)
}

// OmiseGateway implements Gateway over the Omise charge API.
type OmiseGateway struct {
	client *omise.Client
}

func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	return &OmiseGateway{client: client}, nil
}

func sessionFromCharge(charge *omise.Charge) Session {
	redirect := charge.AuthorizeURI
	if redirect == "" {
		redirect = charge.ReturnURI
	}
	return Session{
		ID:            charge.ID,
		RedirectURL:   redirect,
		TransactionID: charge.Transaction,
		Amount:        charge.Amount,
		Status:        string(charge.Status),
		Paid:          charge.Paid,
		Metadata:      charge.Metadata,
	}
}

func (g *OmiseGateway) CreateSession(_ context.Context, req SessionRequest) (Session, error) {
	charge := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Card:        req.CardToken,
		Description: req.Description,
		ReturnURI:   req.ReturnURI,
		Metadata:    req.Metadata,
	}

	if err := g.client.Do(charge, op); err != nil {
		return Session{}, err
	}
	return sessionFromCharge(charge), nil
}

func (g *OmiseGateway) FetchSession(_ context.Context, sessionID string) (Session, error) {
	charge := &omise.Charge{}
	if err := g.client.Do(charge, &operations.RetrieveCharge{ChargeID: sessionID}); err != nil {
		return Session{}, err
	}
	return sessionFromCharge(charge), nil
}

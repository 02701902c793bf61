// Package identity fronts the identity service: bearer-credential
// verification for the auth gate and account provisioning for staff creation.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken covers missing, malformed, expired and badly signed credentials.
	ErrInvalidToken = errors.New("invalid authorization token")
	// ErrAccountExists is returned when provisioning an email that already has an account.
	ErrAccountExists = errors.New("identity account already exists")
	// ErrBadCredentials is returned on a failed email/password check.
	ErrBadCredentials = errors.New("invalid credentials")
)

// Identity is the verified caller attached to a request after the auth gate.
type Identity struct {
	Email string
	Name  string
}

// Verifier checks a bearer credential and returns the identity it asserts.
// Every request is re-verified; results are never cached.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (Identity, error)
}

// Provider provisions and authenticates identity accounts. CreateAccount
// returns the provider-issued unique id for the new account.
type Provider interface {
	CreateAccount(ctx context.Context, email, password, name string) (uid string, err error)
	Authenticate(ctx context.Context, email, password string) (uid string, err error)
}

package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// keyMaterial is the decoded form of IDENTITY_KEY: base64-encoded JSON
// holding the HMAC secret and an opaque key id.
type keyMaterial struct {
	KID    string `json:"kid"`
	Secret string `json:"secret"`
}

// JWTService signs and verifies HS256 bearer tokens. It implements Verifier.
type JWTService struct {
	kid    string
	secret []byte
	ttl    time.Duration
}

// NewJWTService decodes the base64 JSON key material and returns a service
// issuing tokens valid for 72 hours.
func NewJWTService(encodedKey string) (*JWTService, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("identity key is not valid base64: %w", err)
	}

	var km keyMaterial
	if err := json.Unmarshal(raw, &km); err != nil {
		return nil, fmt.Errorf("identity key is not valid JSON: %w", err)
	}
	if km.Secret == "" {
		return nil, fmt.Errorf("identity key material has no secret")
	}

	return &JWTService{kid: km.KID, secret: []byte(km.Secret), ttl: 72 * time.Hour}, nil
}

// IssueToken generates a signed token asserting the given identity.
func (s *JWTService) IssueToken(id Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": id.Email,
		"name":  id.Name,
		"exp":   time.Now().Add(s.ttl).Unix(),
	})
	if s.kid != "" {
		token.Header["kid"] = s.kid
	}

	return token.SignedString(s.secret)
}

// VerifyToken parses and validates a bearer token and returns the asserted identity.
func (s *JWTService) VerifyToken(_ context.Context, tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return Identity{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)

	return Identity{Email: email, Name: name}, nil
}

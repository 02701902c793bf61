package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config collects every environment-supplied setting in one place so the rest
// of the process receives it by injection instead of reading os.Getenv.
type Config struct {
	Port     string
	MongoURI string
	DBName   string

	// IdentityKey is base64-encoded JSON key material for the identity service.
	IdentityKey string

	OmisePublicKey string
	OmiseSecretKey string

	// SiteOrigin is the front-end origin checkout redirects return to.
	SiteOrigin string

	RedisAddress  string
	RedisPassword string

	// IssueDailyLimit caps issue submissions per user per day. 0 disables it.
	IssueDailyLimit int

	// TrustClientIdentity preserves the legacy behavior of accepting a
	// client-supplied createdBy/voter email. When false, identity is always
	// taken from the verified token.
	TrustClientIdentity bool

	// EditPendingOnly rejects issue edits once status has left Pending.
	EditPendingOnly bool
}

// FromEnv reads the configuration from the environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                os.Getenv("PORT"),
		MongoURI:            os.Getenv("MONGODB_URI"),
		DBName:              os.Getenv("DB_NAME"),
		IdentityKey:         os.Getenv("IDENTITY_KEY"),
		OmisePublicKey:      os.Getenv("OMISE_PUBLIC_KEY"),
		OmiseSecretKey:      os.Getenv("OMISE_SECRET_KEY"),
		SiteOrigin:          os.Getenv("SITE_ORIGIN"),
		RedisAddress:        os.Getenv("REDIS_ADDRESS"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		TrustClientIdentity: os.Getenv("TRUST_CLIENT_IDENTITY") == "true",
		EditPendingOnly:     os.Getenv("EDIT_PENDING_ONLY") == "true",
	}

	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.DBName == "" {
		cfg.DBName = "civic-alert-db"
	}
	if cfg.SiteOrigin == "" {
		cfg.SiteOrigin = "http://localhost:5173"
	}
	if v := os.Getenv("ISSUE_DAILY_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ISSUE_DAILY_LIMIT %q: %w", v, err)
		}
		cfg.IssueDailyLimit = limit
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI environment variable is not set")
	}
	if cfg.IdentityKey == "" {
		return nil, fmt.Errorf("IDENTITY_KEY environment variable is not set")
	}

	return cfg, nil
}

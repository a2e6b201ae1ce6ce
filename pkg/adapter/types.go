package adapter

import (
	"time"

	"github.com/google/uuid"
)

// User is a local user record. A user is created exactly once per distinct
// person: keyed by email for email/credentials flows, by
// (provider, providerAccountID) for OAuth.
type User struct {
	ID            uuid.UUID
	Name          string
	Email         string
	Image         string
	EmailVerified *time.Time
}

// Account links a local user to one external identity. The
// (Provider, ProviderAccountID) pair is globally unique.
type Account struct {
	UserID            uuid.UUID
	Type              string // "oauth", "oidc", "email" or "credentials"
	Provider          string
	ProviderAccountID string

	// Token set returned by the provider on the last sign-in.
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	Scope        string
	ExpiresAt    *time.Time
}

// Session is a database-backed session record. SessionToken is an opaque
// random value; it never encodes any state itself.
type Session struct {
	SessionToken string
	UserID       uuid.UUID
	Expires      time.Time
}

// VerificationToken is a single-use token for email sign-in. Token holds
// only a salted hash of the value mailed to the user, never the plaintext.
type VerificationToken struct {
	Identifier string // usually the email address
	Token      string // hashed
	Expires    time.Time
}

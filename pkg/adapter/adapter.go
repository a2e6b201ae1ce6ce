package adapter

import (
	"context"

	"github.com/google/uuid"
)

// Adapter is the persistence interface the authentication core calls for
// all durable entities.
//
// Every method takes a context and may be called concurrently. Methods that
// look records up return (nil, nil) for "not found"; a non-nil error always
// means the backend itself failed.
type Adapter interface {
	// CreateUser stores a new user and returns it with its ID populated.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// GetUser returns the user with the given ID, or nil if absent.
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByEmail returns the user with the given email, or nil.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByAccount returns the user linked to the external identity
	// identified by (provider, providerAccountID), or nil.
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error)

	// UpdateUser overwrites mutable user fields and returns the result.
	UpdateUser(ctx context.Context, user *User) (*User, error)

	// DeleteUser removes the user and all of its sessions and accounts.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// LinkAccount stores a new external identity link.
	LinkAccount(ctx context.Context, account *Account) error

	// UnlinkAccount removes the link for (provider, providerAccountID).
	UnlinkAccount(ctx context.Context, provider, providerAccountID string) error

	// CreateSession stores a new database session.
	CreateSession(ctx context.Context, session *Session) (*Session, error)

	// GetSessionAndUser returns the session with the given token and the
	// user that owns it, or (nil, nil, nil) if the session does not exist.
	GetSessionAndUser(ctx context.Context, sessionToken string) (*Session, *User, error)

	// UpdateSession overwrites the session identified by session.SessionToken
	// and returns the result, or nil if the session does not exist.
	UpdateSession(ctx context.Context, session *Session) (*Session, error)

	// DeleteSession removes the session with the given token.
	DeleteSession(ctx context.Context, sessionToken string) error

	// CreateVerificationToken stores a new verification token.
	CreateVerificationToken(ctx context.Context, token *VerificationToken) (*VerificationToken, error)

	// UseVerificationToken atomically finds and deletes the token matching
	// (identifier, token). It returns the deleted record, or nil when no
	// such token exists — including when a concurrent redemption already
	// consumed it. Implementations must guarantee at most one caller wins.
	UseVerificationToken(ctx context.Context, identifier, token string) (*VerificationToken, error)
}

// Package postgres implements the Adapter contract on PostgreSQL using the
// pgx/v5 driver.
//
// Expected schema:
//
//	CREATE TABLE auth_users (
//	    id             UUID PRIMARY KEY,
//	    name           TEXT NOT NULL DEFAULT '',
//	    email          TEXT NOT NULL DEFAULT '',
//	    image          TEXT NOT NULL DEFAULT '',
//	    email_verified TIMESTAMPTZ
//	);
//	CREATE UNIQUE INDEX auth_users_email_idx ON auth_users (email) WHERE email <> '';
//
//	CREATE TABLE auth_accounts (
//	    provider            TEXT NOT NULL,
//	    provider_account_id TEXT NOT NULL,
//	    user_id             UUID NOT NULL REFERENCES auth_users (id) ON DELETE CASCADE,
//	    type                TEXT NOT NULL,
//	    access_token        TEXT NOT NULL DEFAULT '',
//	    refresh_token       TEXT NOT NULL DEFAULT '',
//	    id_token            TEXT NOT NULL DEFAULT '',
//	    token_type          TEXT NOT NULL DEFAULT '',
//	    scope               TEXT NOT NULL DEFAULT '',
//	    expires_at          TIMESTAMPTZ,
//	    PRIMARY KEY (provider, provider_account_id)
//	);
//
//	CREATE TABLE auth_sessions (
//	    session_token TEXT PRIMARY KEY,
//	    user_id       UUID NOT NULL REFERENCES auth_users (id) ON DELETE CASCADE,
//	    expires       TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE auth_verification_tokens (
//	    identifier TEXT NOT NULL,
//	    token      TEXT NOT NULL,
//	    expires    TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (identifier, token)
//	);
//
// Verification token redemption uses DELETE ... RETURNING, so two concurrent
// redemptions of the same token resolve to exactly one winner inside the
// database.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authkit/pkg/adapter"
)

var _ adapter.Adapter = (*Store)(nil)

// Store implements adapter.Adapter on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing connection pool. The caller owns the pool's
// lifecycle.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateUser(ctx context.Context, user *adapter.User) (*adapter.User, error) {
	u := *user
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_users (id, name, email, image, email_verified) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Email, u.Image, u.EmailVerified,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*adapter.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, name, email, image, email_verified FROM auth_users WHERE id = $1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*adapter.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, name, email, image, email_verified FROM auth_users WHERE email = $1`, email))
}

func (s *Store) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*adapter.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT u.id, u.name, u.email, u.image, u.email_verified
		   FROM auth_users u
		   JOIN auth_accounts a ON a.user_id = u.id
		  WHERE a.provider = $1 AND a.provider_account_id = $2`,
		provider, providerAccountID))
}

func (s *Store) UpdateUser(ctx context.Context, user *adapter.User) (*adapter.User, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE auth_users SET name = $2, email = $3, image = $4, email_verified = $5 WHERE id = $1`,
		user.ID, user.Name, user.Email, user.Image, user.EmailVerified,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	u := *user
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	// Accounts and sessions cascade.
	if _, err := s.pool.Exec(ctx, `DELETE FROM auth_users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete user: %w", err)
	}
	return nil
}

func (s *Store) LinkAccount(ctx context.Context, account *adapter.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_accounts
		    (provider, provider_account_id, user_id, type, access_token, refresh_token, id_token, token_type, scope, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		account.Provider, account.ProviderAccountID, account.UserID, account.Type,
		account.AccessToken, account.RefreshToken, account.IDToken, account.TokenType,
		account.Scope, account.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: link account: %w", err)
	}
	return nil
}

func (s *Store) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM auth_accounts WHERE provider = $1 AND provider_account_id = $2`,
		provider, providerAccountID,
	)
	if err != nil {
		return fmt.Errorf("postgres: unlink account: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session *adapter.Session) (*adapter.Session, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_sessions (session_token, user_id, expires) VALUES ($1, $2, $3)`,
		session.SessionToken, session.UserID, session.Expires,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create session: %w", err)
	}
	sess := *session
	return &sess, nil
}

func (s *Store) GetSessionAndUser(ctx context.Context, sessionToken string) (*adapter.Session, *adapter.User, error) {
	var (
		sess adapter.Session
		user adapter.User
	)
	err := s.pool.QueryRow(ctx,
		`SELECT s.session_token, s.user_id, s.expires,
		        u.id, u.name, u.email, u.image, u.email_verified
		   FROM auth_sessions s
		   JOIN auth_users u ON u.id = s.user_id
		  WHERE s.session_token = $1`, sessionToken,
	).Scan(&sess.SessionToken, &sess.UserID, &sess.Expires,
		&user.ID, &user.Name, &user.Email, &user.Image, &user.EmailVerified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: get session: %w", err)
	}
	return &sess, &user, nil
}

func (s *Store) UpdateSession(ctx context.Context, session *adapter.Session) (*adapter.Session, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE auth_sessions SET expires = $2 WHERE session_token = $1`,
		session.SessionToken, session.Expires,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	sess := *session
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionToken string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE session_token = $1`, sessionToken); err != nil {
		return fmt.Errorf("postgres: delete session: %w", err)
	}
	return nil
}

func (s *Store) CreateVerificationToken(ctx context.Context, token *adapter.VerificationToken) (*adapter.VerificationToken, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_verification_tokens (identifier, token, expires) VALUES ($1, $2, $3)`,
		token.Identifier, token.Token, token.Expires,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create verification token: %w", err)
	}
	t := *token
	return &t, nil
}

func (s *Store) UseVerificationToken(ctx context.Context, identifier, token string) (*adapter.VerificationToken, error) {
	var t adapter.VerificationToken
	err := s.pool.QueryRow(ctx,
		`DELETE FROM auth_verification_tokens
		  WHERE identifier = $1 AND token = $2
		 RETURNING identifier, token, expires`,
		identifier, token,
	).Scan(&t.Identifier, &t.Token, &t.Expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: use verification token: %w", err)
	}
	return &t, nil
}

func (s *Store) scanUser(row pgx.Row) (*adapter.User, error) {
	var u adapter.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.EmailVerified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: scan user: %w", err)
	}
	return &u, nil
}

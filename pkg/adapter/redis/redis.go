// Package redis implements the Adapter contract on Redis. Records are
// stored as JSON values under namespaced keys; sessions and verification
// tokens carry TTLs matching their expiry, so Redis evicts them on its own.
//
// Verification token redemption uses GETDEL, which makes find-and-delete a
// single atomic command: concurrent redemptions of the same token produce
// exactly one winner.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authkit/pkg/adapter"
)

// ErrDuplicateAccount is returned when LinkAccount is called for an
// already-linked (provider, providerAccountID) pair.
var ErrDuplicateAccount = errors.New("redis: account already linked")

var _ adapter.Adapter = (*Store)(nil)

// Store implements adapter.Adapter on a go-redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides the default "auth" key namespace.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New wraps an existing Redis client. The caller owns the client's
// lifecycle.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: "auth"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *Store) CreateUser(ctx context.Context, user *adapter.User) (*adapter.User, error) {
	u := *user
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	if err := s.setJSON(ctx, s.key("user", u.ID.String()), u, 0); err != nil {
		return nil, err
	}
	if u.Email != "" {
		if err := s.client.Set(ctx, s.key("user", "email", u.Email), u.ID.String(), 0).Err(); err != nil {
			return nil, fmt.Errorf("redis: index user email: %w", err)
		}
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*adapter.User, error) {
	var u adapter.User
	ok, err := s.getJSON(ctx, s.key("user", id.String()), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*adapter.User, error) {
	id, err := s.client.Get(ctx, s.key("user", "email", email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get user by email: %w", err)
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("redis: corrupt email index: %w", err)
	}
	return s.GetUser(ctx, uid)
}

func (s *Store) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*adapter.User, error) {
	var acc adapter.Account
	ok, err := s.getJSON(ctx, s.key("account", provider, providerAccountID), &acc)
	if err != nil || !ok {
		return nil, err
	}
	return s.GetUser(ctx, acc.UserID)
}

func (s *Store) UpdateUser(ctx context.Context, user *adapter.User) (*adapter.User, error) {
	var prev adapter.User
	ok, err := s.getJSON(ctx, s.key("user", user.ID.String()), &prev)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	u := *user
	if err := s.setJSON(ctx, s.key("user", u.ID.String()), u, 0); err != nil {
		return nil, err
	}
	if prev.Email != u.Email {
		if prev.Email != "" {
			s.client.Del(ctx, s.key("user", "email", prev.Email))
		}
		if u.Email != "" {
			if err := s.client.Set(ctx, s.key("user", "email", u.Email), u.ID.String(), 0).Err(); err != nil {
				return nil, fmt.Errorf("redis: index user email: %w", err)
			}
		}
	}
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}

	keys := []string{s.key("user", id.String())}
	if u.Email != "" {
		keys = append(keys, s.key("user", "email", u.Email))
	}

	// Account links and sessions reference the user by ID, so a key scan is
	// the only way to cascade. Sessions additionally expire via TTL.
	for _, pattern := range []string{s.key("account", "*"), s.key("session", "*")} {
		iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()
			var ref struct {
				UserID uuid.UUID `json:"UserID"`
			}
			if ok, err := s.getJSON(ctx, key, &ref); err != nil || !ok {
				continue
			}
			if ref.UserID == id {
				keys = append(keys, key)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("redis: scan user references: %w", err)
		}
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: delete user: %w", err)
	}
	return nil
}

func (s *Store) LinkAccount(ctx context.Context, account *adapter.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("redis: marshal account: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key("account", account.Provider, account.ProviderAccountID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: link account: %w", err)
	}
	if !ok {
		return ErrDuplicateAccount
	}
	return nil
}

func (s *Store) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	if err := s.client.Del(ctx, s.key("account", provider, providerAccountID)).Err(); err != nil {
		return fmt.Errorf("redis: unlink account: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session *adapter.Session) (*adapter.Session, error) {
	sess := *session
	if err := s.setJSON(ctx, s.key("session", sess.SessionToken), sess, time.Until(sess.Expires)); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) GetSessionAndUser(ctx context.Context, sessionToken string) (*adapter.Session, *adapter.User, error) {
	var sess adapter.Session
	ok, err := s.getJSON(ctx, s.key("session", sessionToken), &sess)
	if err != nil || !ok {
		return nil, nil, err
	}

	user, err := s.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, nil
	}
	return &sess, user, nil
}

func (s *Store) UpdateSession(ctx context.Context, session *adapter.Session) (*adapter.Session, error) {
	var prev adapter.Session
	ok, err := s.getJSON(ctx, s.key("session", session.SessionToken), &prev)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	sess := *session
	if err := s.setJSON(ctx, s.key("session", sess.SessionToken), sess, time.Until(sess.Expires)); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionToken string) error {
	if err := s.client.Del(ctx, s.key("session", sessionToken)).Err(); err != nil {
		return fmt.Errorf("redis: delete session: %w", err)
	}
	return nil
}

func (s *Store) CreateVerificationToken(ctx context.Context, token *adapter.VerificationToken) (*adapter.VerificationToken, error) {
	t := *token
	if err := s.setJSON(ctx, s.key("vt", t.Identifier, t.Token), t, time.Until(t.Expires)); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) UseVerificationToken(ctx context.Context, identifier, token string) (*adapter.VerificationToken, error) {
	payload, err := s.client.GetDel(ctx, s.key("vt", identifier, token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: use verification token: %w", err)
	}

	var t adapter.VerificationToken
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("redis: unmarshal verification token: %w", err)
	}
	return &t, nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	payload, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return false, fmt.Errorf("redis: unmarshal %s: %w", key, err)
	}
	return true, nil
}

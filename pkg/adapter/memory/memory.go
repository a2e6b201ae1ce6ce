// Package memory provides an in-memory Adapter implementation. It is meant
// for tests and single-process development setups; all data is lost on
// restart.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/adapter"
)

// ErrDuplicateAccount is returned when LinkAccount is called for a
// (provider, providerAccountID) pair that is already linked.
var ErrDuplicateAccount = errors.New("memory: account already linked")

var _ adapter.Adapter = (*Store)(nil)

// Store implements adapter.Adapter with maps guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*adapter.User
	accounts map[accountKey]*adapter.Account
	sessions map[string]*adapter.Session
	tokens   map[tokenKey]*adapter.VerificationToken
}

type accountKey struct {
	provider          string
	providerAccountID string
}

type tokenKey struct {
	identifier string
	token      string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*adapter.User),
		accounts: make(map[accountKey]*adapter.Account),
		sessions: make(map[string]*adapter.Session),
		tokens:   make(map[tokenKey]*adapter.VerificationToken),
	}
}

func (s *Store) CreateUser(ctx context.Context, user *adapter.User) (*adapter.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := *user
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = &u

	out := u
	return &out, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*adapter.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*adapter.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*adapter.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountKey{provider, providerAccountID}]
	if !ok {
		return nil, nil
	}
	u, ok := s.users[acc.UserID]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *adapter.User) (*adapter.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return nil, nil
	}
	u := *user
	s.users[u.ID] = &u
	out := u
	return &out, nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	for k, acc := range s.accounts {
		if acc.UserID == id {
			delete(s.accounts, k)
		}
	}
	for tok, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, tok)
		}
	}
	return nil
}

func (s *Store) LinkAccount(ctx context.Context, account *adapter.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountKey{account.Provider, account.ProviderAccountID}
	if _, ok := s.accounts[key]; ok {
		return ErrDuplicateAccount
	}
	acc := *account
	s.accounts[key] = &acc
	return nil
}

func (s *Store) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, accountKey{provider, providerAccountID})
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session *adapter.Session) (*adapter.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := *session
	s.sessions[sess.SessionToken] = &sess
	out := sess
	return &out, nil
}

func (s *Store) GetSessionAndUser(ctx context.Context, sessionToken string) (*adapter.Session, *adapter.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionToken]
	if !ok {
		return nil, nil, nil
	}
	u, ok := s.users[sess.UserID]
	if !ok {
		return nil, nil, nil
	}
	sessOut := *sess
	userOut := *u
	return &sessOut, &userOut, nil
}

func (s *Store) UpdateSession(ctx context.Context, session *adapter.Session) (*adapter.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.SessionToken]; !ok {
		return nil, nil
	}
	sess := *session
	s.sessions[sess.SessionToken] = &sess
	out := sess
	return &out, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionToken)
	return nil
}

func (s *Store) CreateVerificationToken(ctx context.Context, token *adapter.VerificationToken) (*adapter.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := *token
	s.tokens[tokenKey{t.Identifier, t.Token}] = &t
	out := t
	return &out, nil
}

// UseVerificationToken deletes the matching token under the store lock, so
// concurrent redemptions see at most one winner.
func (s *Store) UseVerificationToken(ctx context.Context, identifier, token string) (*adapter.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey{identifier, token}
	t, ok := s.tokens[key]
	if !ok {
		return nil, nil
	}
	delete(s.tokens, key)
	out := *t
	return &out, nil
}

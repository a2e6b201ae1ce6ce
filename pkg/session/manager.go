package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/jwt"
)

// Strategy selects how session state travels.
type Strategy string

const (
	StrategyDatabase Strategy = "database"
	StrategyJWT      Strategy = "jwt"
)

// User is the outward-facing identity inside a session.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session is the object handed to the application after validation.
type Session struct {
	User    User      `json:"user"`
	Expires time.Time `json:"expires"`
}

// ShapeFunc lets applications reshape or redact the session before it is
// returned. The default is the identity function.
type ShapeFunc func(ctx context.Context, s *Session) (*Session, error)

// Resolved is the result of validating a session token.
type Resolved struct {
	Session *Session

	// Token is the current cookie value. For the jwt strategy a renewed
	// session carries a freshly encoded token here.
	Token string

	// Refreshed signals that the expiry window was extended and the
	// cookie should be re-set.
	Refreshed bool
}

// Manager applies the session strategy and its expiry policy.
type Manager struct {
	store     adapter.Adapter
	codec     *jwt.Codec
	strategy  Strategy
	maxAge    time.Duration
	updateAge time.Duration
	shape     ShapeFunc
	logger    *slog.Logger
}

// Option configures a Manager during construction.
type Option func(*Manager)

// WithAdapter supplies the persistence backend and makes database the
// default strategy.
func WithAdapter(store adapter.Adapter) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithCodec supplies the token codec used by the jwt strategy.
func WithCodec(codec *jwt.Codec) Option {
	return func(m *Manager) {
		m.codec = codec
	}
}

// WithStrategy overrides strategy selection.
func WithStrategy(s Strategy) Option {
	return func(m *Manager) {
		m.strategy = s
	}
}

// WithMaxAge sets the session lifetime (default 30 days).
func WithMaxAge(maxAge time.Duration) Option {
	return func(m *Manager) {
		m.maxAge = maxAge
	}
}

// WithUpdateAge sets the renewal throttle window (default 24h).
func WithUpdateAge(updateAge time.Duration) Option {
	return func(m *Manager) {
		m.updateAge = updateAge
	}
}

// WithShape sets the application session callback.
func WithShape(fn ShapeFunc) Option {
	return func(m *Manager) {
		m.shape = fn
	}
}

// WithLogger configures the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates a session manager. Strategy defaults to database when an
// adapter is present, jwt otherwise.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		maxAge:    30 * 24 * time.Hour,
		updateAge: 24 * time.Hour,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		shape: func(_ context.Context, s *Session) (*Session, error) {
			return s, nil
		},
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.strategy == "" {
		if m.store != nil {
			m.strategy = StrategyDatabase
		} else {
			m.strategy = StrategyJWT
		}
	}

	switch m.strategy {
	case StrategyDatabase:
		if m.store == nil {
			return nil, ErrStoreRequired
		}
	case StrategyJWT:
		if m.codec == nil {
			return nil, ErrCodecRequired
		}
	default:
		return nil, fmt.Errorf("session: unknown strategy %q", m.strategy)
	}

	return m, nil
}

// Strategy reports the effective strategy.
func (m *Manager) Strategy() Strategy {
	return m.strategy
}

// MaxAge reports the configured session lifetime.
func (m *Manager) MaxAge() time.Duration {
	return m.maxAge
}

// Issue creates a session for the stored user and returns the cookie token.
func (m *Manager) Issue(ctx context.Context, user *adapter.User) (token string, expires time.Time, err error) {
	if m.strategy == StrategyDatabase {
		expires = time.Now().Add(m.maxAge)
		token, err = generateToken()
		if err != nil {
			return "", time.Time{}, err
		}
		if _, err := m.store.CreateSession(ctx, &adapter.Session{
			SessionToken: token,
			UserID:       user.ID,
			Expires:      expires,
		}); err != nil {
			return "", time.Time{}, fmt.Errorf("%w: create session: %v", ErrBackendFailure, err)
		}
		return token, expires, nil
	}
	return m.IssueJWT(ctx, UserFromAdapter(user))
}

// IssueJWT creates a stateless token session regardless of the configured
// strategy. Credentials and adapterless sign-ins use it: no durable
// identity record backs them, so a database session would dangle.
func (m *Manager) IssueJWT(ctx context.Context, user User) (token string, expires time.Time, err error) {
	if m.codec == nil {
		return "", time.Time{}, ErrCodecRequired
	}

	expires = time.Now().Add(m.maxAge)
	token, err = m.codec.Encode(jwt.Claims{
		"sub":     user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"picture": user.Image,
		"exp":     expires.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Resolve validates the token and applies the rolling-renewal policy.
// It returns ErrNoSession for any invalid, expired or unknown token;
// ErrBackendFailure is reserved for adapter errors and must surface to the
// caller as a server-side failure, never as "signed out".
func (m *Manager) Resolve(ctx context.Context, token string) (*Resolved, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	switch m.strategy {
	case StrategyDatabase:
		return m.resolveDatabase(ctx, token)
	default:
		return m.resolveJWT(ctx, token)
	}
}

// Destroy terminates the session. Only database sessions have server-side
// state to remove; for jwt this clears nothing and the cookie removal is
// the caller's job.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if m.strategy != StrategyDatabase || token == "" {
		return nil
	}
	if err := m.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("%w: delete session: %v", ErrBackendFailure, err)
	}
	return nil
}

func (m *Manager) resolveDatabase(ctx context.Context, token string) (*Resolved, error) {
	stored, user, err := m.store.GetSessionAndUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: get session: %v", ErrBackendFailure, err)
	}
	if stored == nil || user == nil {
		return nil, ErrNoSession
	}

	now := time.Now()
	if now.After(stored.Expires) {
		if err := m.store.DeleteSession(ctx, token); err != nil {
			m.logger.WarnContext(ctx, "failed to delete expired session", slog.Any("error", err))
		}
		return nil, ErrNoSession
	}

	refreshed := false
	// Extend only when more than updateAge has passed since the window
	// was last pushed out, so hot sessions cost at most one write per
	// updateAge.
	if now.After(stored.Expires.Add(m.updateAge - m.maxAge)) {
		stored.Expires = now.Add(m.maxAge)
		if _, err := m.store.UpdateSession(ctx, stored); err != nil {
			return nil, fmt.Errorf("%w: update session: %v", ErrBackendFailure, err)
		}
		refreshed = true
	}

	sess, err := m.shape(ctx, &Session{
		User: User{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
			Image: user.Image,
		},
		Expires: stored.Expires,
	})
	if err != nil {
		return nil, err
	}

	return &Resolved{Session: sess, Token: token, Refreshed: refreshed}, nil
}

func (m *Manager) resolveJWT(ctx context.Context, token string) (*Resolved, error) {
	claims, err := m.codec.Decode(token)
	if err != nil {
		// Invalid and expired collapse to the same outcome for callers.
		return nil, ErrNoSession
	}

	expires := claimTime(claims, "exp")
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	picture, _ := claims["picture"].(string)

	outToken := token
	refreshed := false
	now := time.Now()
	if now.After(expires.Add(m.updateAge - m.maxAge)) {
		expires = now.Add(m.maxAge)
		outToken, err = m.codec.Encode(jwt.Claims{
			"sub":     sub,
			"name":    name,
			"email":   email,
			"picture": picture,
			"exp":     expires.Unix(),
		})
		if err != nil {
			return nil, err
		}
		refreshed = true
	}

	sess, err := m.shape(ctx, &Session{
		User:    User{ID: sub, Name: name, Email: email, Image: picture},
		Expires: expires,
	})
	if err != nil {
		return nil, err
	}

	return &Resolved{Session: sess, Token: outToken, Refreshed: refreshed}, nil
}

func claimTime(claims jwt.Claims, key string) time.Time {
	switch v := claims[key].(type) {
	case float64:
		return time.Unix(int64(v), 0)
	case int64:
		return time.Unix(v, 0)
	default:
		return time.Time{}
	}
}

// generateToken returns a 256-bit random opaque session token.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: entropy source failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// UserFromAdapter converts a stored user into the session shape.
func UserFromAdapter(u *adapter.User) User {
	if u == nil {
		return User{}
	}
	return User{ID: u.ID.String(), Name: u.Name, Email: u.Email, Image: u.Image}
}

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/adapter/memory"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/session"
)

const testSecret = "session-test-secret-0123456789abcdef"

func newCodec(t *testing.T) *jwt.Codec {
	t.Helper()

	codec, err := jwt.New([]string{testSecret})
	require.NoError(t, err)
	return codec
}

func storedUser(t *testing.T, store *memory.Store) *adapter.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), &adapter.User{
		Name:  "Test User",
		Email: "user@example.com",
	})
	require.NoError(t, err)
	return user
}

func TestNew_StrategySelection(t *testing.T) {
	t.Parallel()

	t.Run("adapter implies database", func(t *testing.T) {
		t.Parallel()

		m, err := session.New(session.WithAdapter(memory.New()))
		require.NoError(t, err)
		assert.Equal(t, session.StrategyDatabase, m.Strategy())
	})

	t.Run("no adapter implies jwt", func(t *testing.T) {
		t.Parallel()

		m, err := session.New(session.WithCodec(newCodec(t)))
		require.NoError(t, err)
		assert.Equal(t, session.StrategyJWT, m.Strategy())
	})

	t.Run("explicit strategy wins", func(t *testing.T) {
		t.Parallel()

		m, err := session.New(
			session.WithAdapter(memory.New()),
			session.WithCodec(newCodec(t)),
			session.WithStrategy(session.StrategyJWT),
		)
		require.NoError(t, err)
		assert.Equal(t, session.StrategyJWT, m.Strategy())
	})

	t.Run("jwt without codec fails", func(t *testing.T) {
		t.Parallel()

		_, err := session.New()
		assert.ErrorIs(t, err, session.ErrCodecRequired)
	})

	t.Run("database without adapter fails", func(t *testing.T) {
		t.Parallel()

		_, err := session.New(session.WithStrategy(session.StrategyDatabase))
		assert.ErrorIs(t, err, session.ErrStoreRequired)
	})
}

func TestManager_DatabaseSessions(t *testing.T) {
	t.Parallel()

	t.Run("issue and resolve", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		user := storedUser(t, store)
		m, err := session.New(session.WithAdapter(store))
		require.NoError(t, err)

		token, expires, err := m.Issue(context.Background(), user)
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(m.MaxAge()), expires, time.Minute)

		resolved, err := m.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), resolved.Session.User.ID)
		assert.Equal(t, "user@example.com", resolved.Session.User.Email)
		assert.Equal(t, token, resolved.Token)
	})

	t.Run("unknown token yields no session", func(t *testing.T) {
		t.Parallel()

		m, err := session.New(session.WithAdapter(memory.New()))
		require.NoError(t, err)

		_, err = m.Resolve(context.Background(), "does-not-exist")
		assert.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("expired session deleted on resolve", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		user := storedUser(t, store)
		m, err := session.New(session.WithAdapter(store))
		require.NoError(t, err)

		_, err = store.CreateSession(context.Background(), &adapter.Session{
			SessionToken: "expired-token",
			UserID:       user.ID,
			Expires:      time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)

		_, err = m.Resolve(context.Background(), "expired-token")
		assert.ErrorIs(t, err, session.ErrNoSession)

		stored, _, err := store.GetSessionAndUser(context.Background(), "expired-token")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("renewal throttled by update age", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		user := storedUser(t, store)
		m, err := session.New(
			session.WithAdapter(store),
			session.WithMaxAge(30*24*time.Hour),
			session.WithUpdateAge(time.Hour),
		)
		require.NoError(t, err)

		token, _, err := m.Issue(context.Background(), user)
		require.NoError(t, err)

		first, err := m.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.False(t, first.Refreshed)

		second, err := m.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.False(t, second.Refreshed)
	})

	t.Run("stale session window extended", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		user := storedUser(t, store)
		maxAge := 30 * 24 * time.Hour
		m, err := session.New(
			session.WithAdapter(store),
			session.WithMaxAge(maxAge),
			session.WithUpdateAge(time.Hour),
		)
		require.NoError(t, err)

		// Session last extended two hours ago: expires maxAge-2h from now.
		_, err = store.CreateSession(context.Background(), &adapter.Session{
			SessionToken: "stale-token",
			UserID:       user.ID,
			Expires:      time.Now().Add(maxAge - 2*time.Hour),
		})
		require.NoError(t, err)

		resolved, err := m.Resolve(context.Background(), "stale-token")
		require.NoError(t, err)
		assert.True(t, resolved.Refreshed)
		assert.WithinDuration(t, time.Now().Add(maxAge), resolved.Session.Expires, time.Minute)
	})

	t.Run("destroy removes the record", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		user := storedUser(t, store)
		m, err := session.New(session.WithAdapter(store))
		require.NoError(t, err)

		token, _, err := m.Issue(context.Background(), user)
		require.NoError(t, err)

		require.NoError(t, m.Destroy(context.Background(), token))

		_, err = m.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
}

func TestManager_JWTSessions(t *testing.T) {
	t.Parallel()

	t.Run("issue and resolve", func(t *testing.T) {
		t.Parallel()

		m, err := session.New(session.WithCodec(newCodec(t)))
		require.NoError(t, err)

		user := &adapter.User{ID: uuid.New(), Name: "JWT User", Email: "jwt@example.com"}
		token, _, err := m.Issue(context.Background(), user)
		require.NoError(t, err)

		resolved, err := m.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), resolved.Session.User.ID)
		assert.Equal(t, "jwt@example.com", resolved.Session.User.Email)
		assert.False(t, resolved.Refreshed)
	})

	t.Run("tampered token yields no session", func(t *testing.T) {
		t.Parallel()

		m, err := session.New(session.WithCodec(newCodec(t)))
		require.NoError(t, err)

		user := &adapter.User{ID: uuid.New()}
		token, _, err := m.Issue(context.Background(), user)
		require.NoError(t, err)

		_, err = m.Resolve(context.Background(), token+"x")
		assert.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("stale token re-encoded", func(t *testing.T) {
		t.Parallel()

		codec := newCodec(t)
		m, err := session.New(
			session.WithCodec(codec),
			session.WithMaxAge(30*24*time.Hour),
			session.WithUpdateAge(time.Hour),
		)
		require.NoError(t, err)

		// Token whose window was last extended two hours ago.
		stale, err := codec.Encode(jwt.Claims{
			"sub": uuid.NewString(),
			"exp": time.Now().Add(30*24*time.Hour - 2*time.Hour).Unix(),
		})
		require.NoError(t, err)

		resolved, err := m.Resolve(context.Background(), stale)
		require.NoError(t, err)
		assert.True(t, resolved.Refreshed)
		assert.NotEqual(t, stale, resolved.Token)
	})
}

func TestManager_ShapeCallback(t *testing.T) {
	t.Parallel()

	m, err := session.New(
		session.WithCodec(newCodec(t)),
		session.WithShape(func(_ context.Context, s *session.Session) (*session.Session, error) {
			s.User.Email = "" // redact
			return s, nil
		}),
	)
	require.NoError(t, err)

	user := &adapter.User{ID: uuid.New(), Email: "secret@example.com"}
	token, _, err := m.Issue(context.Background(), user)
	require.NoError(t, err)

	resolved, err := m.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, resolved.Session.User.Email)
}

func TestManager_IssueJWTForCredentials(t *testing.T) {
	t.Parallel()

	store := memory.New()
	m, err := session.New(session.WithAdapter(store), session.WithCodec(newCodec(t)))
	require.NoError(t, err)
	require.Equal(t, session.StrategyDatabase, m.Strategy())

	user := session.User{ID: uuid.NewString(), Email: "cred@example.com"}
	token, _, err := m.IssueJWT(context.Background(), user)
	require.NoError(t, err)

	// Nothing persisted: the token is self-contained.
	stored, _, err := store.GetSessionAndUser(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/cookie"
)

func TestJar_Names(t *testing.T) {
	t.Parallel()

	t.Run("insecure context uses plain names", func(t *testing.T) {
		t.Parallel()

		jar := cookie.New(false)
		assert.Equal(t, "authkit.session-token", jar.Name(cookie.KindSessionToken))
		assert.Equal(t, "authkit.csrf-token", jar.Name(cookie.KindCSRFToken))
	})

	t.Run("secure context prefixes names", func(t *testing.T) {
		t.Parallel()

		jar := cookie.New(true)
		assert.Equal(t, "__Secure-authkit.session-token", jar.Name(cookie.KindSessionToken))
		assert.Equal(t, "__Host-authkit.csrf-token", jar.Name(cookie.KindCSRFToken))
	})
}

func TestJar_SetGet(t *testing.T) {
	t.Parallel()

	t.Run("set attributes", func(t *testing.T) {
		t.Parallel()

		jar := cookie.New(true)
		rec := httptest.NewRecorder()
		jar.Set(rec, cookie.KindSessionToken, "token-value", time.Hour)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "token-value", c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, int(time.Hour.Seconds()), c.MaxAge)
	})

	t.Run("host prefix carries no domain", func(t *testing.T) {
		t.Parallel()

		jar := cookie.New(true, cookie.WithDomain("example.com"))
		rec := httptest.NewRecorder()
		jar.Set(rec, cookie.KindCSRFToken, "v", time.Hour)
		jar.Set(rec, cookie.KindSessionToken, "v", time.Hour)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)
		assert.Empty(t, cookies[0].Domain)
		assert.Equal(t, "example.com", cookies[1].Domain)
	})

	t.Run("round trip through request", func(t *testing.T) {
		t.Parallel()

		jar := cookie.New(false)
		rec := httptest.NewRecorder()
		jar.SetFlow(rec, cookie.KindState, "state-value")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}

		got, err := jar.Get(req, cookie.KindState)
		require.NoError(t, err)
		assert.Equal(t, "state-value", got)
	})

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()

		jar := cookie.New(false)
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		_, err := jar.Get(req, cookie.KindState)
		assert.ErrorIs(t, err, cookie.ErrNotFound)
	})
}

func TestJar_Clear(t *testing.T) {
	t.Parallel()

	jar := cookie.New(false)
	rec := httptest.NewRecorder()
	jar.ClearFlow(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 4)
	for _, c := range cookies {
		assert.Equal(t, -1, c.MaxAge)
		assert.Empty(t, c.Value)
	}
}

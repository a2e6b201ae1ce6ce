package authkit

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseURL(t *testing.T) {
	t.Parallel()

	t.Run("adds default path", func(t *testing.T) {
		t.Parallel()

		u, err := parseBaseURL("https://app.example.com")
		require.NoError(t, err)
		assert.Equal(t, "https://app.example.com/auth", u.String())
	})

	t.Run("keeps explicit path and strips trailing slash", func(t *testing.T) {
		t.Parallel()

		u, err := parseBaseURL("https://app.example.com/api/auth/")
		require.NoError(t, err)
		assert.Equal(t, "https://app.example.com/api/auth", u.String())
	})

	t.Run("rejects relative input", func(t *testing.T) {
		t.Parallel()

		_, err := parseBaseURL("/auth")
		require.Error(t, err)
		assert.Equal(t, KindConfiguration, KindOf(err))
	})
}

func TestDefaultRedirect(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://app.example.com/auth")
	require.NoError(t, err)

	cases := []struct {
		name, destination, want string
	}{
		{"empty falls back to origin", "", "https://app.example.com"},
		{"relative path is prefixed", "/dashboard", "https://app.example.com/dashboard"},
		{"same origin absolute is kept", "https://app.example.com/settings", "https://app.example.com/settings"},
		{"foreign origin collapses", "https://evil.example.net/", "https://app.example.com"},
		{"protocol-relative collapses", "//evil.example.net", "https://app.example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, defaultRedirect(tc.destination, base))
		})
	}
}

func TestHashTokenIsSaltedBySecret(t *testing.T) {
	t.Parallel()

	assert.Equal(t, hashToken("tok", "s1"), hashToken("tok", "s1"))
	assert.NotEqual(t, hashToken("tok", "s1"), hashToken("tok", "s2"))
	assert.NotEqual(t, hashToken("tok", "s1"), hashToken("other", "s1"))
}

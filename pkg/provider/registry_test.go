package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/provider"
)

func testOAuth2(id string) *provider.OAuth2 {
	return &provider.OAuth2{
		ID:           id,
		Name:         id,
		ClientID:     "client",
		ClientSecret: "secret",
		Authorization: provider.Endpoint{
			URL: "https://example.com/oauth/authorize",
		},
		Token:   provider.Endpoint{URL: "https://example.com/oauth/token"},
		Profile: func(raw map[string]any) (provider.Profile, error) { return provider.Profile{}, nil },
	}
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("preserves embedded query params", func(t *testing.T) {
		t.Parallel()

		ep, err := provider.ParseEndpoint("https://example.com/authorize?audience=api&prompt=consent")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/authorize", ep.URL)
		assert.Equal(t, map[string]string{"audience": "api", "prompt": "consent"}, ep.Params)
	})

	t.Run("empty input yields zero endpoint", func(t *testing.T) {
		t.Parallel()

		ep, err := provider.ParseEndpoint("")
		require.NoError(t, err)
		assert.True(t, ep.IsZero())
	})

	t.Run("relative URL rejected", func(t *testing.T) {
		t.Parallel()

		_, err := provider.ParseEndpoint("/authorize")
		assert.ErrorIs(t, err, provider.ErrInvalidEndpoint)
	})
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("computes signin and callback URLs", func(t *testing.T) {
		t.Parallel()

		reg, err := provider.NewRegistry("https://app.example.com/api/auth", testOAuth2("acme"))
		require.NoError(t, err)

		p, err := reg.Get("acme")
		require.NoError(t, err)
		assert.Equal(t, "https://app.example.com/api/auth/signin/acme", p.SigninURL)
		assert.Equal(t, "https://app.example.com/api/auth/callback/acme", p.CallbackURL)
	})

	t.Run("trailing slash on base URL is trimmed", func(t *testing.T) {
		t.Parallel()

		reg, err := provider.NewRegistry("https://app.example.com/api/auth/", testOAuth2("acme"))
		require.NoError(t, err)

		p, err := reg.Get("acme")
		require.NoError(t, err)
		assert.Equal(t, "https://app.example.com/api/auth/signin/acme", p.SigninURL)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		reg, err := provider.NewRegistry("https://app.example.com/api/auth", testOAuth2("acme"))
		require.NoError(t, err)

		_, err = reg.Get("nope")
		assert.ErrorIs(t, err, provider.ErrUnknownProvider)
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		t.Parallel()

		_, err := provider.NewRegistry("https://a.example.com", testOAuth2("acme"), testOAuth2("acme"))
		assert.ErrorIs(t, err, provider.ErrDuplicateProvider)
	})

	t.Run("missing id rejected", func(t *testing.T) {
		t.Parallel()

		_, err := provider.NewRegistry("https://a.example.com", testOAuth2(""))
		assert.ErrorIs(t, err, provider.ErrMissingID)
	})

	t.Run("missing base URL rejected", func(t *testing.T) {
		t.Parallel()

		_, err := provider.NewRegistry("", testOAuth2("acme"))
		assert.ErrorIs(t, err, provider.ErrMissingBaseURL)
	})
}

func TestNormalization(t *testing.T) {
	t.Parallel()

	t.Run("oauth2 defaults to state check", func(t *testing.T) {
		t.Parallel()

		reg, err := provider.NewRegistry("https://a.example.com", testOAuth2("acme"))
		require.NoError(t, err)

		p, err := reg.Get("acme")
		require.NoError(t, err)
		oauth := p.Provider.(*provider.OAuth2)
		assert.Equal(t, []provider.Check{provider.CheckState}, oauth.Checks)
		assert.True(t, oauth.HasCheck(provider.CheckState))
	})

	t.Run("explicit checks win", func(t *testing.T) {
		t.Parallel()

		src := testOAuth2("acme")
		src.Checks = []provider.Check{provider.CheckPKCE, provider.CheckState}

		reg, err := provider.NewRegistry("https://a.example.com", src)
		require.NoError(t, err)

		p, err := reg.Get("acme")
		require.NoError(t, err)
		assert.Equal(t, []provider.Check{provider.CheckPKCE, provider.CheckState}, p.Provider.(*provider.OAuth2).Checks)
	})

	t.Run("oauth 1.x gets no default check", func(t *testing.T) {
		t.Parallel()

		src := testOAuth2("legacy")
		src.Version = "1.0a"

		reg, err := provider.NewRegistry("https://a.example.com", src)
		require.NoError(t, err)

		p, err := reg.Get("legacy")
		require.NoError(t, err)
		assert.Empty(t, p.Provider.(*provider.OAuth2).Checks)
	})

	t.Run("oidc trusts id_token", func(t *testing.T) {
		t.Parallel()

		src := &provider.OIDC{OAuth2: *testOAuth2("oidc-prov"), Issuer: "https://issuer.example.com"}

		reg, err := provider.NewRegistry("https://a.example.com", src)
		require.NoError(t, err)

		p, err := reg.Get("oidc-prov")
		require.NoError(t, err)
		oidc := p.Provider.(*provider.OIDC)
		assert.True(t, oidc.UseIDToken)
		assert.Equal(t, provider.TypeOIDC, p.ProviderType())
	})

	t.Run("caller struct not mutated", func(t *testing.T) {
		t.Parallel()

		src := testOAuth2("acme")
		_, err := provider.NewRegistry("https://a.example.com", src)
		require.NoError(t, err)
		assert.Empty(t, src.Checks)
	})

	t.Run("email token lifetime default", func(t *testing.T) {
		t.Parallel()

		src := &provider.Email{
			ID:   "email",
			Name: "Email",
			SendVerificationRequest: func(ctx context.Context, params provider.VerificationParams) error {
				return nil
			},
		}

		reg, err := provider.NewRegistry("https://a.example.com", src)
		require.NoError(t, err)

		p, err := reg.Get("email")
		require.NoError(t, err)
		assert.Equal(t, 24*60*60, int(p.Provider.(*provider.Email).TokenMaxAge.Seconds()))
	})
}

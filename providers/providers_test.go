package providers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/mailer"
	"github.com/dmitrymomot/authkit/pkg/provider"
	"github.com/dmitrymomot/authkit/providers"
)

func TestGitHub(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		p := providers.GitHub(providers.Options{ClientID: "id", ClientSecret: "secret"})
		assert.Equal(t, "github", p.ID)
		assert.Equal(t, "id", p.ClientID)
		assert.Equal(t, "https://github.com/login/oauth/authorize", p.Authorization.URL)
		assert.Equal(t, []string{"read:user", "user:email"}, p.Scopes)
		assert.False(t, p.AllowEmailLinking)
	})

	t.Run("scope override replaces defaults", func(t *testing.T) {
		t.Parallel()

		p := providers.GitHub(providers.Options{Scopes: []string{"repo"}})
		assert.Equal(t, []string{"repo"}, p.Scopes)
	})

	t.Run("profile falls back to login", func(t *testing.T) {
		t.Parallel()

		profile, err := p(t, providers.GitHub(providers.Options{}), map[string]any{
			"id":         float64(42),
			"login":      "octocat",
			"avatar_url": "https://example.com/a.png",
		})
		require.NoError(t, err)
		assert.Equal(t, "42", profile.ID)
		assert.Equal(t, "octocat", profile.Name)
		assert.Equal(t, "https://example.com/a.png", profile.Image)
	})
}

func TestGoogle(t *testing.T) {
	t.Parallel()

	g := providers.Google(providers.Options{ClientID: "id"})
	assert.Equal(t, "https://accounts.google.com", g.Issuer)
	assert.Equal(t, provider.TypeOIDC, g.ProviderType())
	assert.Contains(t, g.Checks, provider.CheckPKCE)

	profile, err := g.Profile(map[string]any{
		"sub": "sub-1", "name": "Jane", "email": "jane@example.com", "picture": "p",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", profile.ID)
	assert.Equal(t, "jane@example.com", profile.Email)
}

func TestDiscordAvatars(t *testing.T) {
	t.Parallel()

	d := providers.Discord(providers.Options{})

	t.Run("custom avatar", func(t *testing.T) {
		t.Parallel()

		profile, err := p(t, d, map[string]any{
			"id": "1", "username": "u", "avatar": "abc",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.discordapp.com/avatars/1/abc.png", profile.Image)
	})

	t.Run("animated avatar", func(t *testing.T) {
		t.Parallel()

		profile, err := p(t, d, map[string]any{
			"id": "1", "username": "u", "avatar": "a_xyz",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.discordapp.com/avatars/1/a_xyz.gif", profile.Image)
	})

	t.Run("default avatar from discriminator", func(t *testing.T) {
		t.Parallel()

		profile, err := p(t, d, map[string]any{
			"id": "1", "username": "u", "discriminator": "0007",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.discordapp.com/embed/avatars/2.png", profile.Image)
	})
}

func TestSalesforceDisablesChecks(t *testing.T) {
	t.Parallel()

	s := providers.Salesforce(providers.Options{})
	assert.Equal(t, []provider.Check{provider.CheckNone}, s.Checks)
	assert.Equal(t, "page", s.Authorization.Params["display"])
}

func TestRedditTokenParams(t *testing.T) {
	t.Parallel()

	r := providers.Reddit(providers.Options{})
	assert.Equal(t, "authorization_code", r.Token.Params["grant_type"])
}

func TestAuthorizationParamOverride(t *testing.T) {
	t.Parallel()

	a := providers.Atlassian(providers.Options{
		AuthorizationParams: map[string]string{"prompt": "none", "extra": "1"},
	})
	assert.Equal(t, "none", a.AuthorizationParams["prompt"])
	assert.Equal(t, "1", a.AuthorizationParams["extra"])
	assert.Equal(t, "api.atlassian.com", a.Authorization.Params["audience"])
}

func TestEmailDefaultDelivery(t *testing.T) {
	t.Parallel()

	var sent []mailer.Message
	e := providers.Email(providers.EmailOptions{
		From: "auth@example.com",
		Sender: senderFunc(func(_ context.Context, msg mailer.Message) error {
			sent = append(sent, msg)
			return nil
		}),
	})

	err := e.SendVerificationRequest(context.Background(), provider.VerificationParams{
		Identifier: "user@example.com",
		URL:        "https://app.example.com/auth/callback/email?token=t",
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "user@example.com", sent[0].To)
	assert.Contains(t, sent[0].BodyText, "https://app.example.com/auth/callback/email?token=t")
}

// p runs a descriptor's profile mapping.
func p(t *testing.T, d *provider.OAuth2, raw map[string]any) (provider.Profile, error) {
	t.Helper()
	return d.Profile(raw)
}

type senderFunc func(ctx context.Context, msg mailer.Message) error

func (f senderFunc) Send(ctx context.Context, msg mailer.Message) error { return f(ctx, msg) }

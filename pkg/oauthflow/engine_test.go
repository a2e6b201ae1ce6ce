package oauthflow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/oauthflow"
	"github.com/dmitrymomot/authkit/pkg/provider"
)

// fakeProvider is an httptest-backed OAuth 2.0 provider with call counters
// so tests can assert that failed checks never reach the network.
type fakeProvider struct {
	srv           *httptest.Server
	tokenCalls    atomic.Int64
	userinfoCalls atomic.Int64

	profile map[string]any
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	f := &fakeProvider{
		profile: map[string]any{
			"id":    "ext-123",
			"login": "octocat",
			"email": "octo@example.com",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-token-value",
			"token_type":   "bearer",
			"scope":        "read:user",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.userinfoCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-token-value" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.profile)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeProvider) descriptor(checks ...provider.Check) *provider.OAuth2 {
	return &provider.OAuth2{
		ID:            "acme",
		Name:          "Acme",
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		Authorization: provider.Endpoint{URL: f.srv.URL + "/oauth/authorize"},
		Token:         provider.Endpoint{URL: f.srv.URL + "/oauth/token"},
		UserInfo:      provider.Endpoint{URL: f.srv.URL + "/userinfo"},
		Scopes:        []string{"read:user"},
		Checks:        checks,
		Profile: func(raw map[string]any) (provider.Profile, error) {
			id, _ := raw["id"].(string)
			name, _ := raw["login"].(string)
			email, _ := raw["email"].(string)
			return provider.Profile{ID: id, Name: name, Email: email}, nil
		},
	}
}

func register(t *testing.T, p provider.Provider) *provider.Registered {
	t.Helper()

	reg, err := provider.NewRegistry("https://app.example.com/auth", p)
	require.NoError(t, err)
	r, err := reg.Get(p.ProviderID())
	require.NoError(t, err)
	return r
}

func TestEngine_Begin(t *testing.T) {
	t.Parallel()

	t.Run("state check produces state param and cookie value", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()

		auth, err := engine.Begin(context.Background(), register(t, fake.descriptor(provider.CheckState)), nil)
		require.NoError(t, err)
		require.NotEmpty(t, auth.State)

		u, err := url.Parse(auth.RedirectURL)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, auth.State, q.Get("state"))
		assert.Equal(t, "client-id", q.Get("client_id"))
		assert.Equal(t, "code", q.Get("response_type"))
		assert.Equal(t, "https://app.example.com/auth/callback/acme", q.Get("redirect_uri"))
		assert.Equal(t, "read:user", q.Get("scope"))
	})

	t.Run("pkce check produces S256 challenge", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()

		auth, err := engine.Begin(context.Background(), register(t, fake.descriptor(provider.CheckState, provider.CheckPKCE)), nil)
		require.NoError(t, err)
		require.NotEmpty(t, auth.Verifier)

		u, err := url.Parse(auth.RedirectURL)
		require.NoError(t, err)
		q := u.Query()
		assert.NotEmpty(t, q.Get("code_challenge"))
		assert.Equal(t, "S256", q.Get("code_challenge_method"))
	})

	t.Run("nonce check produces nonce param", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()

		auth, err := engine.Begin(context.Background(), register(t, fake.descriptor(provider.CheckState, provider.CheckNonce)), nil)
		require.NoError(t, err)
		require.NotEmpty(t, auth.Nonce)

		u, err := url.Parse(auth.RedirectURL)
		require.NoError(t, err)
		assert.Equal(t, auth.Nonce, u.Query().Get("nonce"))
	})

	t.Run("endpoint shorthand params survive", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		desc := fake.descriptor(provider.CheckState)
		desc.Authorization.Params = map[string]string{"audience": "api"}
		engine := oauthflow.New()

		auth, err := engine.Begin(context.Background(), register(t, desc), map[string]string{"prompt": "consent"})
		require.NoError(t, err)

		u, err := url.Parse(auth.RedirectURL)
		require.NoError(t, err)
		assert.Equal(t, "api", u.Query().Get("audience"))
		assert.Equal(t, "consent", u.Query().Get("prompt"))
	})

	t.Run("credentials provider unsupported", func(t *testing.T) {
		t.Parallel()

		cred := &provider.Credentials{ID: "creds", Name: "Credentials", Authorize: func(ctx context.Context, c map[string]string) (*provider.Profile, error) {
			return nil, nil
		}}
		engine := oauthflow.New()

		_, err := engine.Begin(context.Background(), register(t, cred), nil)
		assert.ErrorIs(t, err, oauthflow.ErrUnsupportedProvider)
	})
}

func TestEngine_Complete(t *testing.T) {
	t.Parallel()

	t.Run("happy path exchanges code and maps profile", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()
		reg := register(t, fake.descriptor(provider.CheckState))

		outcome, err := engine.Complete(context.Background(), reg, oauthflow.Callback{
			Code:   "auth-code",
			State:  "state-value",
			Stored: oauthflow.Authorization{State: "state-value"},
		})
		require.NoError(t, err)

		assert.Equal(t, "ext-123", outcome.Profile.ID)
		assert.Equal(t, "octocat", outcome.Profile.Name)
		assert.Equal(t, "octo@example.com", outcome.Profile.Email)
		assert.Equal(t, "access-token-value", outcome.Tokens.AccessToken)
		assert.EqualValues(t, 1, fake.tokenCalls.Load())
		assert.EqualValues(t, 1, fake.userinfoCalls.Load())
	})

	t.Run("state mismatch fails before any network call", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()
		reg := register(t, fake.descriptor(provider.CheckState))

		_, err := engine.Complete(context.Background(), reg, oauthflow.Callback{
			Code:   "auth-code",
			State:  "tampered",
			Stored: oauthflow.Authorization{State: "state-value"},
		})
		assert.ErrorIs(t, err, oauthflow.ErrCheckFailed)
		assert.EqualValues(t, 0, fake.tokenCalls.Load())
		assert.EqualValues(t, 0, fake.userinfoCalls.Load())
	})

	t.Run("missing stored state fails", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()
		reg := register(t, fake.descriptor(provider.CheckState))

		_, err := engine.Complete(context.Background(), reg, oauthflow.Callback{
			Code:  "auth-code",
			State: "state-value",
		})
		assert.ErrorIs(t, err, oauthflow.ErrCheckFailed)
		assert.EqualValues(t, 0, fake.tokenCalls.Load())
	})

	t.Run("missing pkce verifier fails", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()
		reg := register(t, fake.descriptor(provider.CheckState, provider.CheckPKCE))

		_, err := engine.Complete(context.Background(), reg, oauthflow.Callback{
			Code:   "auth-code",
			State:  "state-value",
			Stored: oauthflow.Authorization{State: "state-value"},
		})
		assert.ErrorIs(t, err, oauthflow.ErrCheckFailed)
		assert.EqualValues(t, 0, fake.tokenCalls.Load())
	})

	t.Run("provider error parameter is terminal", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()
		reg := register(t, fake.descriptor(provider.CheckState))

		_, err := engine.Complete(context.Background(), reg, oauthflow.Callback{
			ProviderError: "access_denied",
			Stored:        oauthflow.Authorization{State: "state-value"},
		})
		assert.ErrorIs(t, err, oauthflow.ErrProviderDenied)
		assert.EqualValues(t, 0, fake.tokenCalls.Load())
	})

	t.Run("missing code fails", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		engine := oauthflow.New()
		reg := register(t, fake.descriptor(provider.CheckState))

		_, err := engine.Complete(context.Background(), reg, oauthflow.Callback{
			State:  "state-value",
			Stored: oauthflow.Authorization{State: "state-value"},
		})
		assert.ErrorIs(t, err, oauthflow.ErrMissingCode)
	})

	t.Run("token endpoint failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		}))
		t.Cleanup(srv.Close)

		desc := &provider.OAuth2{
			ID:            "broken",
			Name:          "Broken",
			ClientID:      "client-id",
			ClientSecret:  "client-secret",
			Authorization: provider.Endpoint{URL: srv.URL + "/authorize"},
			Token:         provider.Endpoint{URL: srv.URL + "/token"},
			UserInfo:      provider.Endpoint{URL: srv.URL + "/userinfo"},
			Checks:        []provider.Check{provider.CheckState},
			Profile: func(raw map[string]any) (provider.Profile, error) {
				return provider.Profile{ID: "x"}, nil
			},
		}

		engine := oauthflow.New()
		_, err := engine.Complete(context.Background(), register(t, desc), oauthflow.Callback{
			Code:   "auth-code",
			State:  "s",
			Stored: oauthflow.Authorization{State: "s"},
		})
		assert.ErrorIs(t, err, oauthflow.ErrExchangeFailed)
	})

	t.Run("profile mapping error", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		desc := fake.descriptor(provider.CheckState)
		desc.Profile = func(raw map[string]any) (provider.Profile, error) {
			return provider.Profile{}, fmt.Errorf("unexpected payload")
		}
		engine := oauthflow.New()

		_, err := engine.Complete(context.Background(), register(t, desc), oauthflow.Callback{
			Code:   "auth-code",
			State:  "s",
			Stored: oauthflow.Authorization{State: "s"},
		})
		assert.ErrorIs(t, err, oauthflow.ErrProfileParse)
	})

	t.Run("profile without id rejected", func(t *testing.T) {
		t.Parallel()

		fake := newFakeProvider(t)
		desc := fake.descriptor(provider.CheckState)
		desc.Profile = func(raw map[string]any) (provider.Profile, error) {
			return provider.Profile{Email: "missing-id@example.com"}, nil
		}
		engine := oauthflow.New()

		_, err := engine.Complete(context.Background(), register(t, desc), oauthflow.Callback{
			Code:   "auth-code",
			State:  "s",
			Stored: oauthflow.Authorization{State: "s"},
		})
		assert.ErrorIs(t, err, oauthflow.ErrProfileParse)
	})
}

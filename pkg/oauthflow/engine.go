package oauthflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/authkit/pkg/provider"
)

// Engine drives authorization-code sign-in attempts. It holds no per-request
// state; a single engine serves unlimited concurrent flows.
type Engine struct {
	client *http.Client
	logger *slog.Logger

	mu      sync.Mutex
	issuers map[string]*oidc.Provider
}

// Option configures an Engine during construction.
type Option func(*Engine)

// WithHTTPClient sets the client used for token, userinfo and discovery
// requests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// WithLogger configures the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an exchange engine. Defaults: 10s HTTP timeout, discard
// logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		issuers: make(map[string]*oidc.Provider),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// oauthConfig resolves the provider's endpoints into an oauth2.Config,
// running issuer discovery for OIDC providers that omit explicit endpoints.
func (e *Engine) oauthConfig(ctx context.Context, reg *provider.Registered) (*oauth2.Config, *provider.OAuth2, string, error) {
	var (
		cfg    *provider.OAuth2
		issuer string
	)
	switch p := reg.Provider.(type) {
	case *provider.OIDC:
		cfg = &p.OAuth2
		issuer = p.Issuer
	case *provider.OAuth2:
		cfg = p
	default:
		return nil, nil, "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, reg.ProviderID())
	}

	endpoint := oauth2.Endpoint{
		AuthURL:  cfg.Authorization.URL,
		TokenURL: cfg.Token.URL,
	}
	if issuer != "" && (endpoint.AuthURL == "" || endpoint.TokenURL == "") {
		discovered, err := e.discover(ctx, issuer)
		if err != nil {
			return nil, nil, "", err
		}
		if endpoint.AuthURL == "" {
			endpoint.AuthURL = discovered.Endpoint().AuthURL
		}
		if endpoint.TokenURL == "" {
			endpoint.TokenURL = discovered.Endpoint().TokenURL
		}
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  reg.CallbackURL,
		Scopes:       cfg.Scopes,
		Endpoint:     endpoint,
	}, cfg, issuer, nil
}

func (e *Engine) discover(ctx context.Context, issuer string) (*oidc.Provider, error) {
	e.mu.Lock()
	cached, ok := e.issuers[issuer]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	p, err := oidc.NewProvider(oidc.ClientContext(ctx, e.client), issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDiscoveryFailed, issuer, err)
	}

	e.mu.Lock()
	e.issuers[issuer] = p
	e.mu.Unlock()
	return p, nil
}

func randomValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("oauthflow: entropy source failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Package authkit is an authentication middleware library: it mediates
// OAuth/OIDC, credentials and email magic-link sign-in, issues stateless
// or database-backed sessions, and persists users, accounts and sessions
// through a pluggable adapter.
//
// The zero configuration path reads AUTH_SECRET and AUTH_URL from the
// environment and serves stateless JWT sessions:
//
//	cfg, err := authkit.LoadConfig()
//	auth, err := authkit.New(cfg,
//		authkit.WithProviders(
//			providers.GitHub(providers.Options{ClientID: id, ClientSecret: secret}),
//		),
//	)
//	mux.Mount("/auth", auth.Handler())
//
// Supplying an adapter switches sessions to database records and enables
// account linking and magic-link sign-in.
package authkit

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/csrf"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/oauthflow"
	"github.com/dmitrymomot/authkit/pkg/provider"
	"github.com/dmitrymomot/authkit/pkg/session"
)

// Auth is the authentication core. One Auth serves unlimited concurrent
// requests; all of its state is fixed at construction.
type Auth struct {
	cfg       Config
	providers []provider.Provider
	store     adapter.Adapter
	codec     *jwt.Codec
	guard     *csrf.Guard
	jar       *cookie.Jar
	engine    *oauthflow.Engine
	sessions  *session.Manager
	events    Events
	callbacks Callbacks
	logger    *slog.Logger
	skipCSRF  bool

	httpClient *http.Client
	shape      session.ShapeFunc

	// baseURL and registry are nil when the base URL is inferred per
	// request; inferred registries are cached by origin below.
	baseURL  *url.URL
	registry *provider.Registry

	mu         sync.Mutex
	registries map[string]*provider.Registry
}

// Option configures an Auth during construction.
type Option func(*Auth)

// WithProviders registers the sign-in providers.
func WithProviders(providers ...provider.Provider) Option {
	return func(a *Auth) {
		a.providers = append(a.providers, providers...)
	}
}

// WithAdapter supplies the persistence backend. Sessions default to the
// database strategy once an adapter is present.
func WithAdapter(store adapter.Adapter) Option {
	return func(a *Auth) {
		a.store = store
	}
}

// WithEvents registers audit hooks.
func WithEvents(events Events) Option {
	return func(a *Auth) {
		a.events = events
	}
}

// WithCallbacks registers flow decision hooks.
func WithCallbacks(callbacks Callbacks) Option {
	return func(a *Auth) {
		a.callbacks = callbacks
	}
}

// WithLogger configures the logger shared by the core and its components.
func WithLogger(l *slog.Logger) Option {
	return func(a *Auth) {
		a.logger = l
	}
}

// WithHTTPClient sets the client used for provider token, userinfo and
// discovery requests.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Auth) {
		a.httpClient = client
	}
}

// WithSessionShape sets the application session callback that reshapes or
// redacts the session object before it leaves the core.
func WithSessionShape(fn session.ShapeFunc) Option {
	return func(a *Auth) {
		a.shape = fn
	}
}

// WithoutCSRFCheck disables CSRF validation on state-changing actions.
// Only for trusted server-to-server invocation; never the default.
func WithoutCSRFCheck() Option {
	return func(a *Auth) {
		a.skipCSRF = true
	}
}

// New wires the authentication core from configuration.
func New(cfg Config, opts ...Option) (*Auth, error) {
	a := &Auth{
		cfg:        cfg,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		registries: make(map[string]*provider.Registry),
	}
	for _, opt := range opts {
		opt(a)
	}

	if len(cfg.Secrets) == 0 {
		return nil, newError(KindMissingSecret, "", fmt.Errorf("AUTH_SECRET is not set"))
	}

	var codecOpts []jwt.Option
	if cfg.Session.MaxAge > 0 {
		codecOpts = append(codecOpts, jwt.WithMaxAge(cfg.Session.MaxAge))
	}
	if cfg.Encryption {
		codecOpts = append(codecOpts, jwt.WithEncryption())
	}
	codec, err := jwt.New(cfg.Secrets, codecOpts...)
	if err != nil {
		return nil, newError(KindMissingSecret, "", err)
	}
	a.codec = codec

	a.guard, err = csrf.New(cfg.Secrets)
	if err != nil {
		return nil, newError(KindMissingSecret, "", err)
	}

	if cfg.URL != "" {
		a.baseURL, err = parseBaseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		a.registry, err = provider.NewRegistry(a.baseURL.String(), a.providers...)
		if err != nil {
			return nil, newError(KindConfiguration, "", err)
		}
	}

	engineOpts := []oauthflow.Option{oauthflow.WithLogger(a.logger)}
	if a.httpClient != nil {
		engineOpts = append(engineOpts, oauthflow.WithHTTPClient(a.httpClient))
	}
	a.engine = oauthflow.New(engineOpts...)

	sessionOpts := []session.Option{
		session.WithCodec(codec),
		session.WithLogger(a.logger),
	}
	if a.store != nil {
		sessionOpts = append(sessionOpts, session.WithAdapter(a.store))
	}
	if a.shape != nil {
		sessionOpts = append(sessionOpts, session.WithShape(a.shape))
	}
	a.sessions, err = session.NewFromConfig(cfg.Session, sessionOpts...)
	if err != nil {
		return nil, newError(KindConfiguration, "", err)
	}

	a.jar = cookie.New(a.secureContext(), jarOptions(cfg)...)

	if a.usesEmailProvider() && a.store == nil {
		return nil, newError(KindMissingAdapter, "", fmt.Errorf("email sign-in requires an adapter for verification tokens"))
	}

	return a, nil
}

// Sessions exposes the session manager for direct use outside the HTTP
// surface.
func (a *Auth) Sessions() *session.Manager {
	return a.sessions
}

// CookieJar exposes the cookie jar, mainly so applications can clear the
// session cookie from their own handlers.
func (a *Auth) CookieJar() *cookie.Jar {
	return a.jar
}

func jarOptions(cfg Config) []cookie.Option {
	if cfg.CookieDomain == "" {
		return nil
	}
	return []cookie.Option{cookie.WithDomain(cfg.CookieDomain)}
}

// secureContext reports whether auth cookies should carry the Secure
// attribute and name prefixes. Only an explicit http:// base URL opts out.
func (a *Auth) secureContext() bool {
	if a.baseURL != nil {
		return a.baseURL.Scheme == "https"
	}
	return !strings.HasPrefix(a.cfg.URL, "http://")
}

func (a *Auth) usesEmailProvider() bool {
	for _, p := range a.providers {
		if p.ProviderType() == provider.TypeEmail {
			return true
		}
	}
	return false
}

// registryFor resolves the provider registry for a request. With a
// configured AUTH_URL it is a fixed lookup; otherwise the base URL is
// inferred from the request and the registry cached per origin.
func (a *Auth) registryFor(r *http.Request) (*url.URL, *provider.Registry, error) {
	if a.registry != nil {
		return a.baseURL, a.registry, nil
	}

	base, err := a.cfg.inferBaseURL(r)
	if err != nil {
		return nil, nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if reg, ok := a.registries[base.String()]; ok {
		return base, reg, nil
	}
	reg, err := provider.NewRegistry(base.String(), a.providers...)
	if err != nil {
		return nil, nil, newError(KindConfiguration, "", err)
	}
	a.registries[base.String()] = reg
	return base, reg, nil
}

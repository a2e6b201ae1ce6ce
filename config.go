package authkit

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/authkit/pkg/session"
)

// DefaultBasePath is appended to a base URL that carries no path of its
// own, so all auth actions live under one predictable prefix.
const DefaultBasePath = "/auth"

// Config holds the top-level authentication configuration.
type Config struct {
	// Secrets are the token signing secrets, newest first. Rotation keeps
	// older entries valid for verification until their tokens expire.
	Secrets []string `env:"AUTH_SECRET" envSeparator:","`

	// URL is the canonical base URL of the auth endpoints, e.g.
	// "https://app.example.com/auth". When empty, the base URL is inferred
	// per request from forwarded headers, which requires TrustHost.
	URL string `env:"AUTH_URL"`

	// TrustHost permits inferring the base URL from the Host and
	// X-Forwarded-* headers of incoming requests. Only enable it behind a
	// proxy that sanitizes those headers; the inferred value ends up in
	// OAuth redirect URIs.
	TrustHost bool `env:"AUTH_TRUST_HOST" envDefault:"false"`

	// TrustedHosts restricts inference to an allowlist of hostnames.
	// Empty means any host is accepted when TrustHost is set.
	TrustedHosts []string `env:"AUTH_TRUSTED_HOSTS" envSeparator:","`

	// CookieDomain scopes auth cookies to a domain. Empty keeps them
	// host-only.
	CookieDomain string `env:"AUTH_COOKIE_DOMAIN"`

	// Encryption wraps stateless session tokens in an authenticated
	// encryption envelope.
	Encryption bool `env:"AUTH_TOKEN_ENCRYPTION" envDefault:"false"`

	// Session configures lifetime and renewal policy.
	Session session.Config
}

// DefaultConfig returns default authentication configuration.
func DefaultConfig() Config {
	return Config{
		Session: session.DefaultConfig(),
	}
}

// LoadConfig reads configuration from the environment, honoring a local
// .env file when present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("authkit: parse config: %w", err)
	}
	return cfg, nil
}

// parseBaseURL canonicalizes a configured base URL: scheme and host are
// required, a missing path gets DefaultBasePath, trailing slashes are
// dropped.
func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newError(KindConfiguration, "", fmt.Errorf("invalid base URL %q", raw))
	}

	u.Path = strings.TrimSuffix(u.Path, "/")
	if u.Path == "" {
		u.Path = DefaultBasePath
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// inferBaseURL derives the base URL from the request's forwarded headers.
// The result feeds OAuth redirect URIs, so it is gated on the TrustHost
// flag and the optional hostname allowlist.
func (c Config) inferBaseURL(r *http.Request) (*url.URL, error) {
	if !c.TrustHost {
		return nil, newError(KindUntrustedHost, "", fmt.Errorf("no AUTH_URL configured and host inference is disabled"))
	}

	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return nil, newError(KindUntrustedHost, "", fmt.Errorf("request carries no host"))
	}

	if len(c.TrustedHosts) > 0 {
		hostname := host
		if h, _, ok := strings.Cut(host, ":"); ok {
			hostname = h
		}
		allowed := false
		for _, t := range c.TrustedHosts {
			if strings.EqualFold(t, hostname) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, newError(KindUntrustedHost, "", fmt.Errorf("host %q is not in the trusted list", hostname))
		}
	}

	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}

	return parseBaseURL(scheme + "://" + host)
}

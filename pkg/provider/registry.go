package provider

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const defaultEmailTokenMaxAge = 24 * time.Hour

// Registered is a provider after normalization, together with its computed
// sign-in and callback URLs.
type Registered struct {
	Provider

	SigninURL   string
	CallbackURL string
}

// Registry holds the normalized provider set keyed by id.
type Registry struct {
	byID  map[string]*Registered
	order []*Registered
}

// NewRegistry normalizes the given providers against the application base
// URL ("https://host/api/auth" style, no trailing slash). Providers are
// copied during normalization; caller structs stay untouched.
func NewRegistry(baseURL string, providers ...Provider) (*Registry, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	r := &Registry{byID: make(map[string]*Registered, len(providers))}

	for _, p := range providers {
		if p.ProviderID() == "" {
			return nil, ErrMissingID
		}
		if _, exists := r.byID[p.ProviderID()]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateProvider, p.ProviderID())
		}

		normalized, err := normalize(p)
		if err != nil {
			return nil, err
		}

		reg := &Registered{
			Provider:    normalized,
			SigninURL:   baseURL + "/signin/" + p.ProviderID(),
			CallbackURL: baseURL + "/callback/" + p.ProviderID(),
		}
		r.byID[p.ProviderID()] = reg
		r.order = append(r.order, reg)
	}

	return r, nil
}

// Get returns the provider with the given id.
func (r *Registry) Get(id string) (*Registered, error) {
	reg, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return reg, nil
}

// All returns providers in registration order.
func (r *Registry) All() []*Registered {
	return slices.Clone(r.order)
}

// HasCheck reports whether the provider's check list includes c.
func (p *OAuth2) HasCheck(c Check) bool {
	return slices.Contains(p.Checks, c)
}

func normalize(p Provider) (Provider, error) {
	switch v := p.(type) {
	case *OIDC:
		cp := *v
		normalizeOAuth(&cp.OAuth2)
		// An OIDC issuer always delivers an id_token with the code
		// exchange, so trusting it is the variant default.
		cp.UseIDToken = true
		return &cp, nil
	case *OAuth2:
		cp := *v
		normalizeOAuth(&cp)
		return &cp, nil
	case *Email:
		cp := *v
		if cp.TokenMaxAge <= 0 {
			cp.TokenMaxAge = defaultEmailTokenMaxAge
		}
		return &cp, nil
	case *Credentials:
		cp := *v
		return &cp, nil
	default:
		return nil, fmt.Errorf("provider: unsupported variant %T", p)
	}
}

func normalizeOAuth(p *OAuth2) {
	if len(p.Checks) == 0 && !strings.HasPrefix(p.Version, "1.") {
		p.Checks = []Check{CheckState}
	}
	p.Scopes = slices.Clone(p.Scopes)
	p.Checks = slices.Clone(p.Checks)
}

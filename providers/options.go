package providers

import (
	"encoding/json"
	"strconv"

	"github.com/dmitrymomot/authkit/pkg/provider"
)

// Options carries the caller-supplied pieces of an OAuth catalog
// descriptor. Zero fields keep the catalog default for the provider.
type Options struct {
	ClientID     string
	ClientSecret string

	// Scopes replaces the provider's default scope set when non-empty.
	Scopes []string

	// AllowEmailLinking permits linking this provider's identity to an
	// existing user with the same email address. Leave false unless the
	// provider verifies email ownership.
	AllowEmailLinking bool

	// AuthorizationParams are appended to the provider's default
	// authorization parameters, overriding duplicates.
	AuthorizationParams map[string]string
}

// apply copies the caller overrides onto a catalog descriptor.
func (o Options) apply(p *provider.OAuth2) *provider.OAuth2 {
	p.ClientID = o.ClientID
	p.ClientSecret = o.ClientSecret
	if len(o.Scopes) > 0 {
		p.Scopes = o.Scopes
	}
	p.AllowEmailLinking = o.AllowEmailLinking
	if len(o.AuthorizationParams) > 0 {
		if p.AuthorizationParams == nil {
			p.AuthorizationParams = make(map[string]string, len(o.AuthorizationParams))
		}
		for k, v := range o.AuthorizationParams {
			p.AuthorizationParams[k] = v
		}
	}
	return p
}

// str reads a string field from a raw profile payload, rendering JSON
// numbers as their decimal form (GitHub and Discord return numeric IDs).
func str(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// obj reads a nested object field from a raw profile payload.
func obj(raw map[string]any, key string) map[string]any {
	if m, ok := raw[key].(map[string]any); ok {
		return m
	}
	return nil
}

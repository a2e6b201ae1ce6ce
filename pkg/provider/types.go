package provider

import (
	"context"
	"time"
)

// Type discriminates the provider variants.
type Type string

const (
	TypeOAuth2      Type = "oauth"
	TypeOIDC        Type = "oidc"
	TypeEmail       Type = "email"
	TypeCredentials Type = "credentials"
)

// Check names a security check enforced during the authorization-code flow.
type Check string

const (
	CheckState Check = "state"
	CheckPKCE  Check = "pkce"
	CheckNonce Check = "nonce"
	CheckNone  Check = "none"
)

// Profile is the normalized identity every provider maps its raw payload to.
type Profile struct {
	ID    string
	Name  string
	Email string
	Image string
}

// ProfileFunc maps a raw provider payload to the normalized profile shape.
type ProfileFunc func(raw map[string]any) (Profile, error)

// VerificationParams carries everything an email provider needs to deliver
// a magic link.
type VerificationParams struct {
	Identifier string // recipient email
	URL        string // callback URL carrying the token
	Token      string // plaintext token, only for custom delivery needs
	Expires    time.Time
}

// Provider is the sealed union of sign-in provider variants. The four
// implementations are OAuth2, OIDC, Email and Credentials; consumption
// sites type-switch over them.
type Provider interface {
	ProviderID() string
	ProviderName() string
	ProviderType() Type

	sealed()
}

// OAuth2 describes a plain OAuth 2.0 provider.
type OAuth2 struct {
	ID           string
	Name         string
	ClientID     string
	ClientSecret string

	// Endpoints. AuthorizationURL/TokenURL/UserInfoURL shorthand strings
	// are accepted by the Registry and parsed into these.
	Authorization Endpoint
	Token         Endpoint
	UserInfo      Endpoint

	Scopes []string

	// Checks defaults to [CheckState] for OAuth 2.x providers that do not
	// set it explicitly.
	Checks []Check

	// Version is the OAuth protocol version, e.g. "2.0". Only used to
	// suppress the default state check for legacy 1.x descriptors.
	Version string

	// UseIDToken makes profile extraction read claims from the id_token
	// instead of calling the userinfo endpoint. The registry defaults it
	// to true for OIDC providers and never infers it from scopes.
	UseIDToken bool

	// AllowEmailLinking permits linking this provider's verified identity
	// to an existing local user that shares the email address. The zero
	// value rejects such sign-ins with AccountNotLinked; enabling it is a
	// deliberate, per-provider decision with account-takeover implications.
	AllowEmailLinking bool

	// Profile maps the raw payload to the normalized identity. Required.
	Profile ProfileFunc

	// AuthorizationParams are static parameters appended to every
	// authorization URL, after endpoint params and before flow params.
	AuthorizationParams map[string]string
}

func (p *OAuth2) ProviderID() string   { return p.ID }
func (p *OAuth2) ProviderName() string { return p.Name }
func (p *OAuth2) ProviderType() Type   { return TypeOAuth2 }
func (p *OAuth2) sealed()              {}

// OIDC describes an OpenID Connect provider. Endpoints may be left zero
// when Issuer supports discovery.
type OIDC struct {
	OAuth2

	// Issuer is the OIDC issuer URL used for discovery and id_token
	// verification.
	Issuer string
}

func (p *OIDC) ProviderType() Type { return TypeOIDC }

// Email describes a magic-link provider.
type Email struct {
	ID   string
	Name string

	// From is the sender address for verification mail.
	From string

	// TokenMaxAge bounds verification token validity (default 24h).
	TokenMaxAge time.Duration

	// SendVerificationRequest delivers the magic link. Required.
	SendVerificationRequest func(ctx context.Context, params VerificationParams) error

	// GenerateToken overrides the default random token source. Optional.
	GenerateToken func() (string, error)
}

func (p *Email) ProviderID() string   { return p.ID }
func (p *Email) ProviderName() string { return p.Name }
func (p *Email) ProviderType() Type   { return TypeEmail }
func (p *Email) sealed()              {}

// Credentials describes a provider that validates caller-supplied
// credentials (username/password, API key, ...) via the Authorize callback.
type Credentials struct {
	ID   string
	Name string

	// Authorize validates the submitted credentials and returns the
	// authenticated profile, or nil to reject the sign-in. Required.
	Authorize func(ctx context.Context, credentials map[string]string) (*Profile, error)
}

func (p *Credentials) ProviderID() string   { return p.ID }
func (p *Credentials) ProviderName() string { return p.Name }
func (p *Credentials) ProviderType() Type   { return TypeCredentials }
func (p *Credentials) sealed()              {}

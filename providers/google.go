package providers

import "github.com/dmitrymomot/authkit/pkg/provider"

// Google returns the Google OIDC descriptor. Endpoints come from issuer
// discovery and the profile is read from the verified id_token.
func Google(opts Options) *provider.OIDC {
	inner := opts.apply(&provider.OAuth2{
		ID:     "google",
		Name:   "Google",
		Scopes: []string{"openid", "email", "profile"},
		Checks: []provider.Check{provider.CheckState, provider.CheckPKCE},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			return provider.Profile{
				ID:    str(raw, "sub"),
				Name:  str(raw, "name"),
				Email: str(raw, "email"),
				Image: str(raw, "picture"),
			}, nil
		},
	})
	return &provider.OIDC{
		OAuth2: *inner,
		Issuer: "https://accounts.google.com",
	}
}

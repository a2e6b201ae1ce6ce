package providers

import "github.com/dmitrymomot/authkit/pkg/provider"

// Atlassian returns the Atlassian OAuth descriptor. The audience parameter
// is required for the resulting access token to be usable against the
// Atlassian platform API.
func Atlassian(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:   "atlassian",
		Name: "Atlassian",
		Authorization: provider.Endpoint{
			URL: "https://auth.atlassian.com/oauth/authorize",
			Params: map[string]string{
				"audience": "api.atlassian.com",
				"prompt":   "consent",
			},
		},
		Token:    provider.Endpoint{URL: "https://auth.atlassian.com/oauth/token"},
		UserInfo: provider.Endpoint{URL: "https://api.atlassian.com/me"},
		Scopes:   []string{"read:me"},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			return provider.Profile{
				ID:    str(raw, "account_id"),
				Name:  str(raw, "name"),
				Email: str(raw, "email"),
				Image: str(raw, "picture"),
			}, nil
		},
	})
}

package providers

import "github.com/dmitrymomot/authkit/pkg/provider"

// Reddit returns the Reddit OAuth descriptor. Reddit requires the
// grant_type parameter on the token request and only honors the identity
// scope for profile reads.
func Reddit(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:   "reddit",
		Name: "Reddit",
		Authorization: provider.Endpoint{
			URL: "https://www.reddit.com/api/v1/authorize",
		},
		Token: provider.Endpoint{
			URL:    "https://www.reddit.com/api/v1/access_token",
			Params: map[string]string{"grant_type": "authorization_code"},
		},
		UserInfo: provider.Endpoint{URL: "https://oauth.reddit.com/api/v1/me"},
		Scopes:   []string{"identity"},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			return provider.Profile{
				ID:   str(raw, "id"),
				Name: str(raw, "name"),
			}, nil
		},
	})
}

package providers

import "github.com/dmitrymomot/authkit/pkg/provider"

// GitHub returns the GitHub OAuth descriptor. The default scopes grant
// read access to the profile and verified email addresses.
func GitHub(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:            "github",
		Name:          "GitHub",
		Authorization: provider.Endpoint{URL: "https://github.com/login/oauth/authorize"},
		Token:         provider.Endpoint{URL: "https://github.com/login/oauth/access_token"},
		UserInfo:      provider.Endpoint{URL: "https://api.github.com/user"},
		Scopes:        []string{"read:user", "user:email"},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			name := str(raw, "name")
			if name == "" {
				name = str(raw, "login")
			}
			return provider.Profile{
				ID:    str(raw, "id"),
				Name:  name,
				Email: str(raw, "email"),
				Image: str(raw, "avatar_url"),
			}, nil
		},
	})
}

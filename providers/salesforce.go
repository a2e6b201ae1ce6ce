package providers

import "github.com/dmitrymomot/authkit/pkg/provider"

// Salesforce returns the Salesforce OAuth descriptor. Salesforce rejects
// the state parameter on its authorization endpoint, so the descriptor
// disables flow checks entirely.
func Salesforce(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:   "salesforce",
		Name: "Salesforce",
		Authorization: provider.Endpoint{
			URL:    "https://login.salesforce.com/services/oauth2/authorize",
			Params: map[string]string{"display": "page"},
		},
		Token:    provider.Endpoint{URL: "https://login.salesforce.com/services/oauth2/token"},
		UserInfo: provider.Endpoint{URL: "https://login.salesforce.com/services/oauth2/userinfo"},
		Checks:   []provider.Check{provider.CheckNone},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			return provider.Profile{
				ID:    str(raw, "user_id"),
				Image: str(raw, "picture"),
			}, nil
		},
	})
}

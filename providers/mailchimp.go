package providers

import "github.com/dmitrymomot/authkit/pkg/provider"

// Mailchimp returns the Mailchimp OAuth descriptor.
func Mailchimp(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:            "mailchimp",
		Name:          "Mailchimp",
		Authorization: provider.Endpoint{URL: "https://login.mailchimp.com/oauth2/authorize"},
		Token:         provider.Endpoint{URL: "https://login.mailchimp.com/oauth2/token"},
		UserInfo:      provider.Endpoint{URL: "https://login.mailchimp.com/oauth2/metadata"},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			login := obj(raw, "login")
			return provider.Profile{
				ID:    str(login, "login_id"),
				Name:  str(raw, "accountname"),
				Email: str(login, "email"),
			}, nil
		},
	})
}

package providers

import (
	"strings"

	"github.com/dmitrymomot/authkit/pkg/provider"
)

// Basecamp returns the Basecamp OAuth descriptor.
func Basecamp(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:   "basecamp",
		Name: "Basecamp",
		Authorization: provider.Endpoint{
			URL:    "https://launchpad.37signals.com/authorization/new",
			Params: map[string]string{"type": "web_server"},
		},
		Token: provider.Endpoint{
			URL:    "https://launchpad.37signals.com/authorization/token",
			Params: map[string]string{"type": "web_server"},
		},
		UserInfo: provider.Endpoint{URL: "https://launchpad.37signals.com/authorization.json"},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			identity := obj(raw, "identity")
			name := strings.TrimSpace(str(identity, "first_name") + " " + str(identity, "last_name"))
			return provider.Profile{
				ID:    str(identity, "id"),
				Name:  name,
				Email: str(identity, "email_address"),
			}, nil
		},
	})
}

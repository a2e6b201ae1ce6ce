package providers

import "github.com/dmitrymomot/authkit/pkg/provider"

// Yandex returns the Yandex OAuth descriptor.
func Yandex(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:            "yandex",
		Name:          "Yandex",
		Authorization: provider.Endpoint{URL: "https://oauth.yandex.ru/authorize"},
		Token:         provider.Endpoint{URL: "https://oauth.yandex.ru/token"},
		UserInfo: provider.Endpoint{
			URL:    "https://login.yandex.ru/info",
			Params: map[string]string{"format": "json"},
		},
		Scopes: []string{"login:email", "login:info"},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			return provider.Profile{
				ID:    str(raw, "id"),
				Name:  str(raw, "real_name"),
				Email: str(raw, "default_email"),
			}, nil
		},
	})
}

package providers

import "github.com/dmitrymomot/authkit/pkg/provider"

// Spotify returns the Spotify OAuth descriptor.
func Spotify(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:            "spotify",
		Name:          "Spotify",
		Authorization: provider.Endpoint{URL: "https://accounts.spotify.com/authorize"},
		Token:         provider.Endpoint{URL: "https://accounts.spotify.com/api/token"},
		UserInfo:      provider.Endpoint{URL: "https://api.spotify.com/v1/me"},
		Scopes:        []string{"user-read-email"},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			var image string
			if images, ok := raw["images"].([]any); ok && len(images) > 0 {
				if first, ok := images[0].(map[string]any); ok {
					image = str(first, "url")
				}
			}
			return provider.Profile{
				ID:    str(raw, "id"),
				Name:  str(raw, "display_name"),
				Email: str(raw, "email"),
				Image: image,
			}, nil
		},
	})
}
